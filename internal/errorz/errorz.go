// Package errorz holds the error classes shared by services and handlers.
package errorz

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid   = errors.New("invalid argument")
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

type classed struct {
	msg   string
	class error
}

func (e *classed) Error() string { return e.msg }
func (e *classed) Unwrap() error { return e.class }

// Newf returns an error whose message is the formatted text alone and which
// matches class under errors.Is.
func Newf(class error, format string, args ...any) error {
	return &classed{msg: fmt.Sprintf(format, args...), class: class}
}

// Reason returns the message of the classed error in err's chain, or "" when
// there is none.
func Reason(err error) string {
	var c *classed
	if errors.As(err, &c) {
		return c.msg
	}
	return ""
}

package service

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/parisxmas/formcraft/internal/models"
)

const (
	msgRequired      = "This field is required"
	msgUploadMissing = "Uploaded file not found, please upload it again"
)

var phonePattern = regexp.MustCompile(`^[0-9+\-() ]{7,20}$`)

// ValidateAnswers checks answers against the fields' rules and returns one
// message per failing field id. Layout fields and kinds without rules are
// skipped.
func ValidateAnswers(fields []models.Field, answers map[string]any) map[string]string {
	errs := map[string]string{}
	for _, f := range fields {
		if f.Type.IsLayout() {
			continue
		}
		v := answers[f.ID]
		if isEmptyAnswer(v) {
			if f.Required {
				errs[f.ID] = msgRequired
			}
			continue
		}
		if msg := validateAnswer(f, v); msg != "" {
			errs[f.ID] = msg
		}
	}
	return errs
}

// sanitizeAnswers keeps only answers addressed to input fields of the form.
func sanitizeAnswers(fields []models.Field, answers map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Type.IsLayout() {
			continue
		}
		if v, ok := answers[f.ID]; ok && !isEmptyAnswer(v) {
			out[f.ID] = v
		}
	}
	return out
}

func isEmptyAnswer(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func validateAnswer(f models.Field, v any) string {
	switch f.Type {
	case models.KindShortText, models.KindLongText:
		s, ok := v.(string)
		if !ok {
			return "Please enter text"
		}
		n := utf8.RuneCountInString(s)
		if f.MinLength != nil && n < *f.MinLength {
			return fmt.Sprintf("Must be at least %d characters", *f.MinLength)
		}
		if f.MaxLength != nil && n > *f.MaxLength {
			return fmt.Sprintf("Must be at most %d characters", *f.MaxLength)
		}
	case models.KindEmail:
		s, _ := v.(string)
		s = strings.TrimSpace(s)
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return "Please enter a valid email address"
		}
	case models.KindURL:
		s, _ := v.(string)
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "Please enter a valid URL"
		}
	case models.KindPhone:
		s, _ := v.(string)
		if !phonePattern.MatchString(strings.TrimSpace(s)) {
			return "Please enter a valid phone number"
		}
	case models.KindNumber:
		n, ok := toNumber(v)
		if !ok {
			return "Please enter a valid number"
		}
		if f.Min != nil && n < *f.Min {
			return "Must be at least " + strconv.FormatFloat(*f.Min, 'f', -1, 64)
		}
		if f.Max != nil && n > *f.Max {
			return "Must be at most " + strconv.FormatFloat(*f.Max, 'f', -1, 64)
		}
	case models.KindDate:
		s, _ := v.(string)
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return "Please enter a valid date"
		}
	case models.KindTime:
		s, _ := v.(string)
		if _, err := time.Parse("15:04", s); err != nil {
			return "Please enter a valid time"
		}
	case models.KindSingleChoice, models.KindDropdown:
		s, _ := v.(string)
		if !contains(f.Options, s) {
			return "Please select a valid option"
		}
	case models.KindMultipleChoice:
		picked, ok := toStrings(v)
		if !ok {
			return "Please select a valid option"
		}
		for _, p := range picked {
			if !contains(f.Options, p) {
				return "Please select a valid option"
			}
		}
	case models.KindRating:
		n, ok := toNumber(v)
		top := f.RatingMax()
		if !ok || n != math.Trunc(n) || n < 1 || n > float64(top) {
			return fmt.Sprintf("Rating must be between 1 and %d", top)
		}
	case models.KindScale:
		n, ok := toNumber(v)
		lo, hi := f.ScaleRange()
		if !ok || n != math.Trunc(n) || n < float64(lo) || n > float64(hi) {
			return fmt.Sprintf("Please select a value between %d and %d", lo, hi)
		}
	case models.KindFileUpload:
		return validateFileRef(f, v)
	}
	return ""
}

// validateFileRef checks an answer produced by models.Upload.Ref.
func validateFileRef(f models.Field, v any) string {
	ref, ok := v.(map[string]any)
	if !ok {
		return "Please upload a file"
	}
	id, _ := ref["uploadId"].(string)
	if id == "" {
		return "Please upload a file"
	}
	name, _ := ref["fileName"].(string)
	ct, _ := ref["contentType"].(string)
	size, _ := toNumber(ref["size"])
	return checkFile(f, name, ct, int64(size))
}

// checkFile applies a field's type and size limits to one file.
func checkFile(f models.Field, name, contentType string, size int64) string {
	if len(f.AllowedFileTypes) > 0 && !fileTypeAllowed(f.AllowedFileTypes, name, contentType) {
		return "File type not allowed. Allowed: " + strings.Join(f.AllowedFileTypes, ", ")
	}
	if f.MaxFileSizeMB > 0 {
		limit := uint64(f.MaxFileSizeMB * 1024 * 1024)
		if size < 0 || uint64(size) > limit {
			return "File must be at most " + humanize.IBytes(limit)
		}
	}
	return ""
}

// fileTypeAllowed matches extensions (".pdf" or "pdf"), exact MIME types and
// MIME wildcards such as "image/*".
func fileTypeAllowed(allowed []string, name, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	contentType = strings.ToLower(contentType)
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		switch {
		case strings.HasSuffix(a, "/*"):
			if strings.HasPrefix(contentType, strings.TrimSuffix(a, "*")) {
				return true
			}
		case strings.Contains(a, "/"):
			if a == contentType {
				return true
			}
		default:
			if ext != "" && "."+strings.TrimPrefix(a, ".") == ext {
				return true
			}
		}
	}
	return false
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

func toStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}

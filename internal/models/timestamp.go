package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/parisxmas/formcraft/internal/timefmt"
)

// TimestampLayout is fixed-width so that stored timestamps sort lexically in
// chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is the single time representation used by every stored model.
// Decoding accepts any shape timefmt.Parse understands; anything else
// decodes to the zero Timestamp, which orders before every real time.
type Timestamp struct {
	t time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC().Truncate(time.Millisecond)}
}

func Now() Timestamp { return NewTimestamp(time.Now()) }

func (ts Timestamp) Time() time.Time { return ts.t }

func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

func (ts Timestamp) Before(o Timestamp) bool { return ts.t.Before(o.t) }

func (ts Timestamp) After(o Timestamp) bool { return ts.t.After(o.t) }

func (ts Timestamp) Equal(o Timestamp) bool { return ts.t.Equal(o.t) }

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.t.Format(TimestampLayout)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	t, ok := timefmt.Parse(raw)
	if !ok {
		*ts = Timestamp{}
		return nil
	}
	*ts = NewTimestamp(t)
	return nil
}

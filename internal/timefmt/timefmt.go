// Package timefmt normalizes the timestamp shapes found in stored documents
// and request bodies, and formats them for display.
//
// Accepted shapes: time.Time, values with a Time() accessor, ISO/RFC3339
// strings (with or without zone, date-only), epoch numbers (milliseconds, or
// seconds when below 1e11), numeric strings, and objects carrying
// seconds/nanoseconds.
package timefmt

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	InvalidDate = "Invalid date"
	Recently    = "recently"

	DateLayout     = "Jan 2, 2006"
	DateTimeLayout = "Jan 2, 2006, 3:04 PM"

	day = 24 * time.Hour

	// relativeCutoff is the age past which relative formatting gives way to
	// an absolute date.
	relativeCutoff = 30 * day

	// epochSecondsLimit separates epoch seconds from epoch milliseconds.
	epochSecondsLimit = 1e11
)

// Timer is implemented by timestamp values exposing a conversion accessor.
type Timer interface {
	Time() time.Time
}

var stringLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

var relativeMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "just now", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: time.Minute},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: time.Hour},
	{D: day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * day, Format: "1 day %s", DivBy: day},
	{D: relativeCutoff, Format: "%d days %s", DivBy: day},
}

// Parse converts v into a time. The boolean is false when v has no
// recognizable timestamp shape or denotes the zero time.
func Parse(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case Timer:
		tt := t.Time()
		return tt, !tt.IsZero()
	case string:
		return parseString(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case float64:
		return fromEpoch(t)
	case float32:
		return fromEpoch(float64(t))
	case int:
		return fromEpoch(float64(t))
	case int32:
		return fromEpoch(float64(t))
	case int64:
		return fromEpoch(float64(t))
	case uint64:
		return fromEpoch(float64(t))
	case map[string]any:
		return fromSecondsObject(t)
	}
	return time.Time{}, false
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, !t.IsZero()
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f)
	}
	return time.Time{}, false
}

func fromEpoch(n float64) (time.Time, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}, false
	}
	if math.Abs(n) < epochSecondsLimit {
		sec, frac := math.Modf(n)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}
	return time.UnixMilli(int64(n)).UTC(), true
}

func fromSecondsObject(m map[string]any) (time.Time, bool) {
	raw, ok := m["seconds"]
	if !ok {
		raw, ok = m["_seconds"]
	}
	if !ok {
		return time.Time{}, false
	}
	sec, ok := toFloat(raw)
	if !ok {
		return time.Time{}, false
	}
	nsRaw, ok := m["nanoseconds"]
	if !ok {
		nsRaw = m["_nanoseconds"]
	}
	ns, _ := toFloat(nsRaw)
	return time.Unix(int64(sec), int64(ns)).UTC(), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// FormatDate renders v as "Jan 2, 2006", or InvalidDate.
func FormatDate(v any) string {
	t, ok := Parse(v)
	if !ok {
		return InvalidDate
	}
	return t.Format(DateLayout)
}

// FormatDateTime renders v as "Jan 2, 2006, 3:04 PM", or InvalidDate.
func FormatDateTime(v any) string {
	t, ok := Parse(v)
	if !ok {
		return InvalidDate
	}
	return t.Format(DateTimeLayout)
}

// FormatRelativeTime renders v relative to now ("5 minutes ago"). Ages past
// thirty days fall back to FormatDate. Unparseable input yields Recently.
func FormatRelativeTime(v any) string {
	return formatRelative(v, time.Now())
}

func formatRelative(v any, now time.Time) string {
	t, ok := Parse(v)
	if !ok {
		return Recently
	}
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	if diff >= relativeCutoff {
		return t.Format(DateLayout)
	}
	return humanize.CustomRelTime(t, now, "ago", "from now", relativeMagnitudes)
}

package timefmt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accessor struct{ t time.Time }

func (a accessor) Time() time.Time { return a.t }

func TestParse_Shapes(t *testing.T) {
	want := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	cases := map[string]any{
		"time":         want,
		"pointer":      &want,
		"accessor":     accessor{t: want},
		"rfc3339":      "2024-06-01T12:30:00Z",
		"offset":       "2024-06-01T14:30:00+02:00",
		"millis":       float64(want.UnixMilli()),
		"millis int":   want.UnixMilli(),
		"seconds":      want.Unix(),
		"json number":  json.Number("1717245000000"),
		"numeric text": "1717245000000",
		"seconds obj":  map[string]any{"seconds": float64(want.Unix()), "nanoseconds": float64(0)},
		"_seconds obj": map[string]any{"_seconds": float64(want.Unix())},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := Parse(in)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParse_DateOnly(t *testing.T) {
	got, ok := Parse("2024-01-01")
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.January, got.Month())
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []any{nil, "", "not a date", time.Time{}, map[string]any{"foo": 1}, []int{1}} {
		_, ok := Parse(in)
		assert.False(t, ok, "%v", in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Mar 5, 2024", FormatDate("2024-03-05T10:00:00Z"))
	assert.Equal(t, "Mar 5, 2024, 10:07 AM", FormatDateTime("2024-03-05T10:07:00Z"))
	assert.Equal(t, InvalidDate, FormatDate("garbage"))
	assert.Equal(t, InvalidDate, FormatDateTime(nil))
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "just now", formatRelative(now.Add(-10*time.Second), now))
	assert.Equal(t, "1 minute ago", formatRelative(now.Add(-90*time.Second), now))
	assert.Equal(t, "5 minutes ago", formatRelative(now.Add(-5*time.Minute), now))
	assert.Equal(t, "1 hour ago", formatRelative(now.Add(-61*time.Minute), now))
	assert.Equal(t, "3 hours ago", formatRelative(now.Add(-3*time.Hour), now))
	assert.Equal(t, "1 day ago", formatRelative(now.Add(-25*time.Hour), now))
	assert.Equal(t, "2 days ago", formatRelative(now.Add(-48*time.Hour), now))
	assert.Equal(t, "May 1, 2024", formatRelative(now.AddDate(0, 0, -40), now))
	assert.Equal(t, Recently, formatRelative("???", now))
}

func TestFormatRelativeTime_Now(t *testing.T) {
	assert.Equal(t, "1 minute ago", FormatRelativeTime(time.Now().Add(-90*time.Second)))
	assert.Equal(t, "2 days ago", FormatRelativeTime(time.Now().Add(-48*time.Hour)))
	assert.Equal(t, Recently, FormatRelativeTime(struct{}{}))
}

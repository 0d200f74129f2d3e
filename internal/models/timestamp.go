package models

import (
	"fmt"
	"time"
)

// TimeLayoutMinute is the canonical storage layout for record timestamps:
// local naive datetime at minute precision, e.g. "2026-02-01T13:45".
const TimeLayoutMinute = "2006-01-02T15:04"

// MalformedTimestampError reports a stored timestamp that could not be
// parsed, identifying the offending record and raw value. Records with
// bad timestamps are surfaced, never silently dropped or coerced.
type MalformedTimestampError struct {
	ID  int64
	Raw string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q on record %d", e.Raw, e.ID)
}

// FormatMinute renders a timestamp in the canonical storage layout.
func FormatMinute(t time.Time) string {
	return t.Format(TimeLayoutMinute)
}

// ParseTimestamp tries the canonical layout first, then a few layouts
// older rows or hand-edited data may carry. Returns a
// MalformedTimestampError naming the record when nothing matches.
func ParseTimestamp(id int64, raw string) (time.Time, error) {
	layouts := []string{
		TimeLayoutMinute,
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Truncate(time.Minute), nil
		}
	}

	return time.Time{}, &MalformedTimestampError{ID: id, Raw: raw}
}

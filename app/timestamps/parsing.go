// Package timestamps parses timestamp strings into epoch milliseconds and
// provides the civil-date arithmetic the filter window works in.
package timestamps

import (
	"strconv"
	"strings"
	"time"
)

// Parse tries common timestamp formats and returns epoch milliseconds.
// Timezone-less formats are interpreted in loc; a nil loc means UTC.
// Unparsable input reports ok=false, never an error.
func Parse(s string, loc *time.Location) (int64, bool) {
	ss := strings.TrimSpace(s)
	if ss == "" {
		return 0, false
	}
	if loc == nil {
		loc = time.UTC
	}

	// Integer epoch seconds/milliseconds first. Numeric timestamps are
	// common in exports and this skips a long chain of failed time.Parse
	// attempts.
	if n, err := strconv.ParseInt(ss, 10, 64); err == nil {
		if n > 1_000_000_000_000 {
			// Epoch milliseconds (13+ digits)
			return n, true
		}
		// Epoch seconds
		return n * 1000, true
	}

	// Formats carrying an explicit zone.
	withZone := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05.000 MST",
		"2006-01-02 15:04:05 MST",
		"2006-01-02T15:04:05.000 MST",
	}
	for _, layout := range withZone {
		if t, err := time.Parse(layout, ss); err == nil {
			return t.UnixMilli(), true
		}
	}

	// Zone-less formats interpreted in loc.
	naive := []string{
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05.000",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02 15:04:05",
		"01/02/2006 15:04:05",
		"01/02/2006",
	}
	for _, layout := range naive {
		if t, err := time.ParseInLocation(layout, ss, loc); err == nil {
			return t.UnixMilli(), true
		}
	}

	return 0, false
}

// ParseDate parses a date-only value (YYYY-MM-DD) and returns the epoch
// day. Full timestamps are accepted and truncated to their date.
func ParseDate(s string, loc *time.Location) (int64, bool) {
	ms, ok := Parse(s, loc)
	if !ok {
		return 0, false
	}
	return EpochDay(ms), true
}

const millisPerDay = 24 * 60 * 60 * 1000

// EpochDay truncates epoch milliseconds to whole days since the Unix
// epoch. Comparisons on epoch days are date-only comparisons in UTC.
func EpochDay(ms int64) int64 {
	if ms >= 0 {
		return ms / millisPerDay
	}
	return (ms-millisPerDay+1) / millisPerDay
}

// DayStart returns the epoch milliseconds of midnight UTC on the given
// epoch day.
func DayStart(day int64) int64 {
	return day * millisPerDay
}

// FormatDay renders an epoch day as YYYY-MM-DD.
func FormatDay(day int64) string {
	return time.UnixMilli(DayStart(day)).UTC().Format("2006-01-02")
}

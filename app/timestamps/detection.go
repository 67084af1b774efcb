package timestamps

import (
	"strings"
	"time"
)

// DefaultTimeColumn picks the default time column from the temporal
// columns of a table. A column literally named "time" wins; otherwise the
// first temporal column in table order is used. Returns "" when temporal
// is empty.
func DefaultTimeColumn(temporal []string) string {
	for _, name := range temporal {
		if strings.EqualFold(strings.TrimSpace(name), "time") {
			return name
		}
	}
	if len(temporal) > 0 {
		return temporal[0]
	}
	return ""
}

// ResolveLocation resolves a timezone name to a *time.Location. Supports
// "Local", "UTC" and IANA TZ names; unresolvable names fall back to UTC.
func ResolveLocation(name string) *time.Location {
	tzName := strings.TrimSpace(name)
	switch strings.ToUpper(tzName) {
	case "", "UTC":
		return time.UTC
	case "LOCAL":
		return time.Local
	default:
		if l, err := time.LoadLocation(tzName); err == nil {
			return l
		}
		return time.UTC
	}
}

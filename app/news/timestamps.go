package news

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnparseableTimestamp = errors.New("timestamp does not match any accepted layout")

// TimestampLayouts is the closed list of accepted published_at layouts.
// Layouts without a zone are read as UTC.
var TimestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// Abbreviations that name a known zero offset. The time package also reads
// "GMT+h" style names with their real offset. Any other abbreviation is
// ambiguous and rejected.
var utcAbbreviations = map[string]bool{"UTC": true, "GMT": true, "UT": true, "Z": true}

func knownZone(t time.Time) bool {
	name, _ := t.Zone()
	return utcAbbreviations[name] || strings.HasPrefix(name, "GMT")
}

// ParseTimestamp parses s against TimestampLayouts and returns the instant in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp: %w", ErrUnparseableTimestamp)
	}

	for _, layout := range TimestampLayouts {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err != nil {
			continue
		}
		// An unknown abbreviation parses as a zero-offset zone, which
		// would shift the instant silently.
		if layout == time.RFC1123 && !knownZone(t) {
			name, _ := t.Zone()
			return time.Time{}, fmt.Errorf("%q: unsupported zone abbreviation %q: %w", value, name, ErrUnparseableTimestamp)
		}
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%q: %w", value, ErrUnparseableTimestamp)
}

// FormatTimestamp is the single textual form used by the store and the exports.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

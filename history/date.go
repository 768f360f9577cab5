package history

import (
	"strings"
	"time"
)

// dateLayouts is the normalization chain, tried in order. The first layout
// that parses wins; no attempt is made to pick the "most precise" match.
//
// Layouts without a zone are parsed as UTC.
var dateLayouts = []string{
	// ISO-8601, fractional seconds, colon offset.
	"2006-01-02T15:04:05.999999999Z07:00",
	// ISO-8601 without fraction.
	"2006-01-02T15:04:05Z07:00",

	// Fallbacks, decreasing precision. Each offset form takes the compact
	// ±hhmm offset or the hour-only ±hh that Postgres prints; the colon
	// form is already covered above.
	"2006-01-02T15:04:05.000000Z0700",
	"2006-01-02T15:04:05.000000Z07",
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05.000Z07",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// Normalize parses a capture timestamp into an absolute instant. Returns
// false for empty input or when no known encoding matches. Safe for
// concurrent use.
func Normalize(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	// Postgres text output separates date and time with a space.
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

package core

import (
	"strings"
	"time"
)

// DateFormat is the canonical calendar-day format used in storage and APIs.
// Days carry no time component and no zone.
const DateFormat = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseDate parses a canonical YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// Today returns the current calendar day in canonical format.
func Today() string {
	return time.Now().UTC().Format(DateFormat)
}

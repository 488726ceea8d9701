// Package normalize converts heterogeneous date text and loosely
// structured usage-history dumps into canonical record shapes.
package normalize

import (
	"strings"
	"time"
)

// canonicalLayout is the fixed-width day-precision form every date is
// normalized to. Lexicographic order on it matches chronological order.
const canonicalLayout = "2006-01-02"

// dateLayouts are tried in order after ISO-8601 handling: abbreviated
// month, full month, then the permissive leftovers.
var dateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate converts free-form date text into canonical YYYY-MM-DD.
// It returns ok=false on total failure; callers record a warning and
// continue, the batch is never aborted.
func ParseDate(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(canonicalLayout), true
	}
	// ISO-8601 timestamps arrive with a trailing Z the layouts below
	// do not carry.
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(canonicalLayout), true
		}
	}
	return "", false
}

// MonthKey reduces free-form date text to its YYYY-MM bucket.
func MonthKey(text string) (string, bool) {
	date, ok := ParseDate(text)
	if !ok {
		return "", false
	}
	return date[:7], true
}

package utils

import (
	"time"

	"github.com/seenimoa/finnews/pkg/models"
)

// apiDateLayouts are tried in order; the first successful parse wins.
var apiDateLayouts = []string{
	"2006-01-02 15:04:05 -0700", // 2024-12-26 08:40:26 +0000 (Currents API)
	"2006-01-02T15:04:05-0700",  // ISO with numeric offset
	"2006-01-02T15:04:05-07:00", // ISO with colon offset
	"2006-01-02T15:04:05Z",      // ISO UTC
}

// ParseAPIDate parses a timestamp as returned by news APIs and feeds.
// It returns a *models.DateParseError naming the input when no layout matches.
func ParseAPIDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range apiDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &models.DateParseError{Input: s, Err: lastErr}
}

// FormatDateTime formats t as "2006-01-02 15:04:05" in its own location.
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

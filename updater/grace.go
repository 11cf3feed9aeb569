package updater

import (
	"strings"
	"time"
)

// GracePeriod is how long after a store release a newer version is not yet
// reported as a required update.
const GracePeriod = 24 * time.Hour

var releaseDateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// IsWithinGracePeriod reports whether fewer than 24 hours separate
// releaseDate from now. Missing or unparseable dates are never in the window.
func IsWithinGracePeriod(releaseDate string, now time.Time) bool {
	return withinWindow(releaseDate, now, GracePeriod)
}

func withinWindow(releaseDate string, now time.Time, window time.Duration) bool {
	released, ok := parseReleaseDate(releaseDate)
	if !ok {
		return false
	}
	return now.Sub(released) < window
}

func parseReleaseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

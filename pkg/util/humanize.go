package util

import (
	"fmt"
	"time"
)

var spans = []struct {
	d    time.Duration
	unit string
}{
	{365 * 24 * time.Hour, "year"},
	{30 * 24 * time.Hour, "month"},
	{7 * 24 * time.Hour, "week"},
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
}

// HumanizeSince renders how long ago t was relative to now, e.g. "just now",
// "1 minute ago" or "3 years ago"
func HumanizeSince(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < time.Minute {
		return "just now"
	}

	for _, s := range spans {
		if diff >= s.d {
			n := int(diff / s.d)
			if n == 1 {
				return fmt.Sprintf("1 %s ago", s.unit)
			}

			return fmt.Sprintf("%d %ss ago", n, s.unit)
		}
	}

	return "just now"
}

package app

import (
	"fmt"
	"time"
)

// formatRelative renders how long ago at was, at minute granularity past
// the first minute.
func formatRelative(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	delta := now.Sub(at)
	if delta < 0 {
		delta = 0
	}
	switch {
	case delta < time.Minute:
		return "just now"
	case delta < time.Hour:
		return plural(int(delta/time.Minute), "minute") + " ago"
	case delta < 24*time.Hour:
		return plural(int(delta/time.Hour), "hour") + " ago"
	default:
		return plural(int(delta/(24*time.Hour)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// timestampBucket changes once a minute so relative labels re-render.
func timestampBucket(now time.Time) int64 {
	return now.Unix() / 60
}

package timefmt

import (
	"fmt"
	"time"
)

const (
	day   = 24 * time.Hour
	month = 30 * day
	year  = 365 * day
)

// Relative renders how long ago t was, bucketed the way the conversation UI
// expects: "just now" under a minute, then "{n}min", "{n}h", "{n}d",
// "{n}mth", "{n}y". Pure derivation; callers pass now so it stays testable.
func Relative(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dmin", int(d.Minutes()))
	case d < day:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 31*day:
		return fmt.Sprintf("%dd", int(d/day))
	case d < year:
		return fmt.Sprintf("%dmth", int(d/month))
	default:
		return fmt.Sprintf("%dy", int(d/year))
	}
}

// Seen renders the read-receipt marker shown under the newest own message.
func Seen(readAt, now time.Time) string {
	return "Seen " + Relative(readAt, now)
}

package discord

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"coachbot/internal/domain"
)

// ParseMinutes reads a signed duration given either as bare minutes ("-15",
// "+30") or in Go duration syntax ("1h30m").
func ParseMinutes(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &domain.ParseError{Input: s, Reason: "duration is empty"}
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(s, "+")); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, &domain.ParseError{Input: s, Reason: "expected minutes (e.g. -15) or a duration (e.g. 1h30m)"}
	}
	return d, nil
}

// FormatWait renders a wait for humans: "45s", "12m", "1h05m".
func FormatWait(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatInstant renders t in loc for queue listings.
func FormatInstant(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("02/01/2006 15:04")
}

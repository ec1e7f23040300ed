package util

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"errors"
)

func plural(n int, suffix string) string {
	switch n {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%d %s", n, suffix)
	default:
		return fmt.Sprintf("%d %ss", n, suffix)
	}
}

func joinpair(a, b string) string {
	if a != "" && b != "" {
		return a + " " + b
	}
	return a + b
}

// FriendlyDuration spells out a duration, for messages on the panel display.
func FriendlyDuration(d time.Duration) string {
	switch {
	case d.Hours() >= 1:
		hours := int(d.Hours())
		mins := int(int(d.Minutes()) - 60*hours)
		return joinpair(plural(hours, "hour"), plural(mins, "minute"))
	case d.Minutes() >= 1:
		mins := int(d.Minutes())
		secs := int(int(d.Seconds()) - 60*mins)
		return joinpair(plural(mins, "minute"), plural(secs, "second"))
	case d.Seconds() >= 1:
		secs := int(d.Seconds())
		return plural(secs, "second")
	case d.Nanoseconds() >= 1000:
		ms := int(d.Seconds() * 1000)
		return plural(ms, "millisecond")
	case d.Nanoseconds() > 0:
		ns := d.Nanoseconds()
		return plural(int(ns), "nanosecond")
	}
	return "0 seconds"
}

var durationUnits = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
}

var reDur1 = regexp.MustCompile(`^(\d+)(ms|[smhd])$`)
var reDur2 = regexp.MustCompile(`^(\d+)(ms|[smhd])\s*(\d+)(ms|[smhd])$`)

func duration(m []string) time.Duration {
	i, _ := strconv.Atoi(m[0])
	return time.Duration(i) * durationUnits[m[1]]
}

// ParseDuration does the same as time.ParseDuration but also understands days
// and a space between the parts ("1m 30s").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if m1 := reDur1.FindStringSubmatch(s); m1 != nil {
		return duration(m1[1:3]), nil
	}
	if m2 := reDur2.FindStringSubmatch(s); m2 != nil {
		return duration(m2[1:3]) + duration(m2[3:5]), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	return 0, errors.New("invalid duration")
}

// Sleep pauses for d, returning early with the context's error if it is
// cancelled first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

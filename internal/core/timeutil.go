package core

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// MonthKeyLayout is the year-month layout used to key budget goals.
const MonthKeyLayout = "2006-01"

// MonthKey returns the goal key for the month containing t, e.g. "2025-10".
func MonthKey(t time.Time) string {
	return t.Format(MonthKeyLayout)
}

// ParseMonthKey returns midnight on the first day of the keyed month, in UTC.
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.Parse(MonthKeyLayout, strings.TrimSpace(key))
	if err != nil {
		return time.Time{}, invalid("month", ErrInvalidMonthKey)
	}
	return t, nil
}

// MonthRange covers the whole keyed month, from the first instant to the last nanosecond.
func MonthRange(key string) (DateRange, error) {
	start, err := ParseMonthKey(key)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}, nil
}

// DaysRemainingInMonth counts the whole days after now's day until the month ends.
// On the last day of a month it returns 0.
func DaysRemainingInMonth(now time.Time) int {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	return lastDay - now.Day()
}

// TimeAgo renders t relative to now, e.g. "3 hours ago".
func TimeAgo(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

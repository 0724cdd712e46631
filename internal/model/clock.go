package model

import (
	"fmt"
	"time"
)

// ClockLayout is the wire format for wall-clock times ("09:30").
const ClockLayout = "15:04"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseClock parses a "HH:MM" wall-clock string.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t, nil
}

// CombineDateClock materializes a wall-clock string on a calendar date.
func CombineDateClock(date time.Time, clock string) (time.Time, error) {
	t, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// DateOnly truncates a timestamp to midnight in its location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

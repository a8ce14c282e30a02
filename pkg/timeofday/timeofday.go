// Package timeofday handles wall-clock "HH:MM" values, calendar dates in
// "YYYY-MM-DD" form and lower-case weekday names.
package timeofday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used across the API and storage.
const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

var ErrMalformed = errors.New("malformed time of day")

// Clock is a time of day in minutes past midnight. Values produced by Add may
// exceed 24h; String keeps counting hours past 23 in that case.
type Clock int

// Parse accepts "H:MM" or "HH:MM" with hour 0..23 and minute 0..59.
func Parse(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return Clock(hour*60 + minute), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Clock {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func Of(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) Minutes() int { return int(c) }

// String formats as zero-padded "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Valid reports whether c is within a single day.
func (c Clock) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

// ----- Weekdays -----

// Weekdays lists weekday names indexed by time.Weekday (0 = sunday).
var Weekdays = [7]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

func WeekdayName(d time.Weekday) string {
	return Weekdays[d%7]
}

func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, w := range Weekdays {
		if w == name {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// ----- Dates -----

// ParseDate parses a "YYYY-MM-DD" date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformed, s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

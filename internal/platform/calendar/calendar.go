// Package calendar works with canonical local calendar days.
//
// A Day is a zero-padded YYYY-MM-DD string in the user's local zone. Days sort
// lexicographically, so plain string comparison orders them chronologically.
package calendar

import (
	"fmt"
	"math"
	"time"

	"studystreak/internal/platform/clock"
)

const Layout = "2006-01-02"

const secondsPerDay = 86400

type Day string

func (d Day) String() string { return string(d) }

func (d Day) IsZero() bool { return d == "" }

// AddDays shifts the day by n calendar days. A zero or invalid day stays unchanged.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(Layout, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, n).Format(Layout))
}

func Parse(s string) (Day, error) {
	if _, err := time.Parse(Layout, s); err != nil {
		return "", fmt.Errorf("parse day %q: %w", s, err)
	}
	return Day(s), nil
}

// DayOf returns the calendar day of t as observed in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return Day(t.In(loc).Format(Layout))
}

// DaysBetween returns b minus a in calendar days. Both days are re-parsed to
// midnight on a fixed-offset clock so daylight saving shifts never produce a
// fractional result. An empty or malformed day is infinitely far away.
func DaysBetween(a, b Day) float64 {
	ta, errA := time.Parse(Layout, string(a))
	tb, errB := time.Parse(Layout, string(b))
	if errA != nil || errB != nil {
		return math.Inf(1)
	}
	return tb.Sub(ta).Seconds() / secondsPerDay
}

// IsContiguous reports whether b is the same day as a or the day after.
func IsContiguous(a, b Day) bool {
	return DaysBetween(a, b) <= 1
}

func IsCompletedToday(last, today Day) bool {
	return !last.IsZero() && last == today
}

// Range lists every day from from to to inclusive. It returns nil when to precedes from.
func Range(from, to Day) []Day {
	n := DaysBetween(from, to)
	if math.IsInf(n, 0) || n < 0 {
		return nil
	}
	days := make([]Day, 0, int(n)+1)
	for d := from; d <= to; d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Calendar resolves "today" for a clock in a fixed location.
type Calendar struct {
	clock clock.Clock
	loc   *time.Location
}

func New(clk clock.Clock, loc *time.Location) Calendar {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return Calendar{clock: clk, loc: loc}
}

func (c Calendar) Today() Day {
	return DayOf(c.clock.Now(), c.loc)
}

func (c Calendar) Now() time.Time {
	return c.clock.Now()
}

func (c Calendar) Location() *time.Location {
	return c.loc
}

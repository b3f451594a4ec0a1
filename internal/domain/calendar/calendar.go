// Package calendar resolves which day of the booking calendar a run targets.
package calendar

import "time"

// Target is the day a run books on, plus how many times the booking page
// has to be advanced by one week to show it.
type Target struct {
	Date         time.Time
	Weekday      time.Weekday
	WeekAdvances int
}

// Resolve returns today + daysBeforeBookable (calendar days). Week advances
// count the Monday boundaries between the two dates, which stays correct
// when the ISO week number wraps at a year boundary.
func Resolve(today time.Time, daysBeforeBookable int) Target {
	start := midnight(today)
	target := start.AddDate(0, 0, daysBeforeBookable)

	weeks := int(monday(target).Sub(monday(start)).Hours()/24) / 7
	if weeks < 0 {
		weeks = 0
	}
	return Target{
		Date:         target,
		Weekday:      target.Weekday(),
		WeekAdvances: weeks,
	}
}

// FormatDate renders a target the way reports show it: "Tuesday, 14/01/2025".
func (t Target) FormatDate() string {
	return t.Weekday.String() + ", " + t.Date.Format("02/01/2006")
}

// midnight drops the clock part but keeps the calendar date of the
// caller's location. Arithmetic is done in UTC so DST shifts never add or
// remove a day.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monday(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// Package grid computes Sunday-aligned month layouts for a range of days.
package grid

import (
	"time"

	"buffcal/internal/dateutil"
)

// Day is one calendar day of a month grid.
type Day struct {
	Date time.Time
	// Offset is the day offset from the range start. It may be negative or
	// beyond the range for days of a month that only partly intersects it.
	Offset  int
	InRange bool
}

// Month describes the grid of one month intersecting the range.
type Month struct {
	MonthStart time.Time
	MonthEnd   time.Time
	// GridStart is the Sunday on or before MonthStart; GridEnd is the
	// Saturday on or after MonthEnd (both at midnight).
	GridStart time.Time
	GridEnd   time.Time

	LeadingSpacers  int
	TrailingSpacers int

	Days []Day
}

// Offset returns the range day offset of date, and whether that day lies in
// this month.
func (m Month) Offset(date time.Time) (int, bool) {
	i := dateutil.DaysBetween(m.MonthStart, date)
	if i < 0 || i >= len(m.Days) {
		return 0, false
	}
	return m.Days[i].Offset, true
}

// Weeks returns the number of grid rows needed to lay the month out.
func (m Month) Weeks() int {
	return (m.LeadingSpacers + len(m.Days) + m.TrailingSpacers) / 7
}

// Build returns one Month per calendar month intersecting the totalDays days
// starting at rangeStart, in chronological order. totalDays below 1 is
// treated as 1.
func Build(rangeStart time.Time, totalDays int) []Month {
	if totalDays < 1 {
		totalDays = 1
	}
	rangeStart = dateutil.StartOfDay(rangeStart)
	rangeEnd := dateutil.EndOfDay(dateutil.AddDays(rangeStart, totalDays-1))

	var months []Month
	last := dateutil.StartOfMonth(rangeEnd)
	for iter := dateutil.StartOfMonth(rangeStart); !iter.After(last); iter = dateutil.AddMonthsPreservingDay(iter, 1) {
		months = append(months, buildMonth(iter, rangeStart, totalDays))
	}
	return months
}

func buildMonth(monthStart, rangeStart time.Time, totalDays int) Month {
	monthEnd := dateutil.EndOfMonth(monthStart)
	m := Month{
		MonthStart: monthStart,
		MonthEnd:   monthEnd,
		GridStart:  dateutil.AlignToWeekStartSunday(monthStart),
		GridEnd:    dateutil.AlignToWeekEndSaturday(monthEnd),
	}

	if !m.GridStart.Equal(monthStart) {
		m.LeadingSpacers = int(monthStart.Weekday())
	}
	m.TrailingSpacers = 6 - int(monthEnd.Weekday())

	n := dateutil.DaysInMonth(monthStart)
	m.Days = make([]Day, 0, n)
	for i := 0; i < n; i++ {
		date := dateutil.AddDays(monthStart, i)
		off := dateutil.DaysBetween(rangeStart, date)
		m.Days = append(m.Days, Day{
			Date:    date,
			Offset:  off,
			InRange: off >= 0 && off < totalDays,
		})
	}
	return m
}

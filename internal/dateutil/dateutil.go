// Package dateutil implements calendar arithmetic on time.Time values.
//
// Every function works on the wall clock of the instant's own location, so
// day and month steps follow calendar dates across DST transitions instead of
// adding fixed durations.
package dateutil

import "time"

const secondsPerDay = 24 * 60 * 60

// LastMillisecond is the offset of the last representable instant of a day
// from the next day's midnight.
const LastMillisecond = time.Millisecond

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 on the day of t.
func EndOfDay(t time.Time) time.Time {
	return AddDays(StartOfDay(t), 1).Add(-LastMillisecond)
}

// AddDays shifts t by n calendar days, keeping the wall clock time.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d+n, hh, mm, ss, t.Nanosecond(), t.Location())
}

// AddWeeks shifts t by n calendar weeks.
func AddWeeks(t time.Time, n int) time.Time {
	return AddDays(t, 7*n)
}

// AddMonthsPreservingDay advances t by n months keeping the day of month.
// When the target month is too short the day is clamped to its last day
// (Jan 31 + 1 month = Feb 28 in a non-leap year). The clamp is lossy: the
// next step starts from the clamped day, so Jan 31 -> Feb 28 -> Mar 28.
func AddMonthsPreservingDay(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	out := time.Date(y, m+time.Month(n), d, hh, mm, ss, t.Nanosecond(), t.Location())
	if out.Day() != d {
		// Overflowed into the following month; day 0 is the last day of the target.
		oy, om, _ := out.Date()
		out = time.Date(oy, om, 0, hh, mm, ss, t.Nanosecond(), t.Location())
	}
	return out
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last millisecond of t's month.
func EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, t.Location()).Add(-LastMillisecond)
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AlignToWeekStartSunday returns midnight of the Sunday on or before t.
func AlignToWeekStartSunday(t time.Time) time.Time {
	d := StartOfDay(t)
	return AddDays(d, -int(d.Weekday()))
}

// AlignToWeekEndSaturday returns midnight of the Saturday on or after t.
func AlignToWeekEndSaturday(t time.Time) time.Time {
	d := StartOfDay(t)
	return AddDays(d, 6-int(d.Weekday()))
}

// IsSameDay reports whether a and b fall on the same calendar date.
// Each instant is read in its own location.
func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from the date of a to the
// date of b. It is negative when b's date is before a's.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int((db.Unix() - da.Unix()) / secondsPerDay)
}

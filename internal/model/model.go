package model

import (
	"fmt"
	"time"

	"buffcal/internal/dateutil"
)

// RecurrenceType is the repeat rule of an Event. Only a closed set of values
// is expanded; anything else falls back to the base occurrence.
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

// Known reports whether r is one of the supported recurrence types.
// The empty string is treated as none.
func (r RecurrenceType) Known() bool {
	switch r {
	case "", RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Event is a raw event record as supplied by the event source, before
// recurrence expansion. Timestamps are unix seconds.
type Event struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	StartTime      int64          `json:"start_time"`
	EndTime        int64          `json:"end_time"`
	Recurring      bool           `json:"recurring"`
	RecurrenceType RecurrenceType `json:"recurrence_type"`
}

// Start returns the event start in loc.
func (e Event) Start(loc *time.Location) time.Time {
	return time.Unix(e.StartTime, 0).In(loc)
}

// End returns the event end in loc.
func (e Event) End(loc *time.Location) time.Time {
	return time.Unix(e.EndTime, 0).In(loc)
}

// MaxAbsUnix bounds event timestamps to 8.64e12 seconds either side of the
// epoch, about 273,790 years.
const MaxAbsUnix = 8_640_000_000_000

// Validate checks the invariants every event must hold before expansion.
func (e Event) Validate() error {
	if outOfRange(e.StartTime) {
		return fmt.Errorf("%w: start_time %d out of range", ErrMalformedEvent, e.StartTime)
	}
	if outOfRange(e.EndTime) {
		return fmt.Errorf("%w: end_time %d out of range", ErrMalformedEvent, e.EndTime)
	}
	if e.EndTime <= e.StartTime {
		return ErrInvalidInterval
	}
	return nil
}

func outOfRange(unix int64) bool {
	return unix < -MaxAbsUnix || unix > MaxAbsUnix
}

// Occurrence is one concrete instance of an Event, with the recurrence
// resolved to an absolute start/end.
type Occurrence struct {
	ID    string
	Type  EventType
	Start time.Time
	End   time.Time
}

// Duration returns the length of the occurrence.
func (o Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

// Segment is the part of an Occurrence that falls inside a single calendar
// day. Start and End are both within [StartOfDay, EndOfDay] of that day.
type Segment struct {
	ID    string
	Type  EventType
	Start time.Time
	End   time.Time
}

// Window is the range of interest: Start is local midnight of the first day
// and End is the last instant of day TotalDays-1.
type Window struct {
	Start     time.Time
	End       time.Time
	TotalDays int
}

// NewWindow returns the window of totalDays calendar days starting on the
// day of today. totalDays below 1 is raised to 1.
func NewWindow(today time.Time, totalDays int) Window {
	if totalDays < 1 {
		totalDays = 1
	}
	start := dateutil.StartOfDay(today)
	return Window{
		Start:     start,
		End:       dateutil.EndOfDay(dateutil.AddDays(start, totalDays-1)),
		TotalDays: totalDays,
	}
}

// Contains reports whether t lies within the window, inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

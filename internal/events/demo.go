package events

import (
	"time"

	"buffcal/internal/model"
)

// DemoEvents returns a small fixed set of events relative to now, used when
// the configured source cannot be loaded.
func DemoEvents(now time.Time) []model.Event {
	base := now.Unix()
	eveningStart := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())
	eveningEnd := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, now.Location())

	return []model.Event{
		{
			ID:             "demo-quad-1",
			Type:           model.TypeQuadrupleXP,
			StartTime:      base + 60*60,
			EndTime:        base + 3*60*60,
			RecurrenceType: model.RecurrenceNone,
		},
		{
			ID:             "demo-triple-weekly",
			Type:           model.TypeTripleXP,
			StartTime:      base + 2*60*60,
			EndTime:        base + 4*60*60,
			Recurring:      true,
			RecurrenceType: model.RecurrenceWeekly,
		},
		{
			ID:             "demo-double-daily",
			Type:           model.TypeDoubleXP,
			StartTime:      base + 5*60*60,
			EndTime:        base + 6*60*60,
			Recurring:      true,
			RecurrenceType: model.RecurrenceDaily,
		},
		{
			ID:             "demo-monthly",
			Type:           model.TypeDoubleXP,
			StartTime:      eveningStart.Unix(),
			EndTime:        eveningEnd.Unix(),
			Recurring:      true,
			RecurrenceType: model.RecurrenceMonthly,
		},
	}
}

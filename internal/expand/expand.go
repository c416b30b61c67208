// Package expand resolves recurring events into occurrences over a window.
package expand

import (
	"errors"
	"time"

	"buffcal/internal/dateutil"
	appLog "buffcal/internal/log"
	"buffcal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// Config controls how recurrence expansion is performed.
type Config struct {
	// Location is the calendar in which event timestamps are interpreted and
	// recurrence steps are taken. If nil, time.Local is used.
	Location *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap on the occurrences emitted for
	// one event. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ConfigForWindow returns a Config covering w in w's location.
func ConfigForWindow(w model.Window) Config {
	return Config{
		Location:   w.Start.Location(),
		RangeStart: w.Start,
		RangeEnd:   w.End,
	}
}

// Result wraps the expanded occurrences together with per-event problems.
type Result struct {
	Occurrences []model.Occurrence
	// Errors holds one *model.EventError per rejected or degraded event.
	// Events rejected with ErrInvalidInterval contribute no occurrences;
	// events reported with ErrUnknownRecurrenceType still contribute their
	// base occurrence.
	Errors []error
	// TruncatedEvents records IDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// Expand resolves every event into the occurrences that overlap
// [cfg.RangeStart, cfg.RangeEnd]. Occurrences are appended in input order
// and, within one event, in chronological order.
//
//   - Non-recurring events (or recurrence type none) are included unchanged
//     when they overlap the range.
//   - Recurring events repeat from their own start every day, week or month
//     until an occurrence starts after RangeEnd. Daily and weekly
//     occurrences are whole-day offsets from the start; monthly ones follow
//     the clamping month step. Periods that end before RangeStart are
//     skipped without being visited.
//   - Events with an unknown recurrence type only have their base occurrence
//     considered.
//
// A bad event never aborts the batch; its error is collected in Result.Errors.
func Expand(events []model.Event, cfg Config) Result {
	var result Result

	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	result.Occurrences = make([]model.Occurrence, 0, len(events))

	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			result.Errors = append(result.Errors, &model.EventError{Index: i, ID: ev.ID, Err: err})
			appLog.Debug("expand: rejected event", "id", ev.ID, "index", i, "reason", err.Error())
			continue
		}

		if ev.Recurring && !ev.RecurrenceType.Known() {
			result.Errors = append(result.Errors, &model.EventError{Index: i, ID: ev.ID, Err: model.ErrUnknownRecurrenceType})
			appLog.Debug("expand: unknown recurrence type; using base occurrence only",
				"id", ev.ID,
				"recurrence_type", string(ev.RecurrenceType),
			)
		}

		occ, hitCap := expandEvent(ev, cfg)
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.ID)
			appLog.Error("expand: truncated occurrences for event due to cap",
				errors.New("max occurrences reached"),
				"id", ev.ID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
		result.Occurrences = append(result.Occurrences, occ...)
	}

	return result
}

// expandEvent expands a single validated event, returning its occurrences
// and whether the cap was hit.
func expandEvent(ev model.Event, cfg Config) ([]model.Occurrence, bool) {
	start := ev.Start(cfg.Location)
	end := ev.End(cfg.Location)

	if !ev.Recurring || ev.RecurrenceType == model.RecurrenceNone || ev.RecurrenceType == "" {
		if !overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		return []model.Occurrence{makeOccurrence(ev, start, end)}, false
	}

	return expandRecurring(ev, start, cfg)
}

// stepSlack is how many non-overlapping steps an event may take on top of
// MaxOccurrencesPerEvent before it is reported as truncated.
const stepSlack = 64

func expandRecurring(ev model.Event, start time.Time, cfg Config) ([]model.Occurrence, bool) {
	var out []model.Occurrence
	// Durations are carried in seconds; time.Duration saturates near 292 years.
	durSecs := ev.EndTime - ev.StartTime
	steps := 0

	// visit reports whether expansion must stop because the cap was reached.
	visit := func(occStart time.Time) bool {
		steps++
		if steps > cfg.MaxOccurrencesPerEvent+stepSlack {
			return true
		}
		occEnd := time.Unix(occStart.Unix()+durSecs, int64(occStart.Nanosecond())).In(occStart.Location())
		if overlaps(occStart, occEnd, cfg.RangeStart, cfg.RangeEnd) {
			if len(out) >= cfg.MaxOccurrencesPerEvent {
				return true
			}
			out = append(out, makeOccurrence(ev, occStart, occEnd))
		}
		return false
	}

	r := ev.RecurrenceType
	if !r.Known() {
		visit(start)
		return out, false
	}

	// Monthly steps clamp and drift while the day of month is above 28.
	// Once it is at most 28 every later step keeps it, so occurrences can be
	// addressed as anchor plus k months.
	anchor := start
	if r == model.RecurrenceMonthly {
		for anchor.Day() > 28 {
			if anchor.After(cfg.RangeEnd) {
				return out, false
			}
			if visit(anchor) {
				return out, true
			}
			anchor = dateutil.AddMonthsPreservingDay(anchor, 1)
		}
	}

	for k := periodsBefore(r, anchor, cfg.RangeStart, durSecs); ; k++ {
		occStart := nthPeriod(r, anchor, k)
		if occStart.After(cfg.RangeEnd) {
			break
		}
		if visit(occStart) {
			return out, true
		}
	}

	return out, false
}

// nthPeriod returns the start of the k-th occurrence counted from anchor.
func nthPeriod(r model.RecurrenceType, anchor time.Time, k int) time.Time {
	switch r {
	case model.RecurrenceDaily:
		return dateutil.AddDays(anchor, k)
	case model.RecurrenceWeekly:
		return dateutil.AddWeeks(anchor, k)
	default:
		return dateutil.AddMonthsPreservingDay(anchor, k)
	}
}

// periodsBefore returns how many whole periods after anchor can be skipped
// because every occurrence among them ends before rangeStart. It keeps a two
// day margin for wall-clock shifts, so the first few steps after the skip
// may still fall short of the window.
func periodsBefore(r model.RecurrenceType, anchor, rangeStart time.Time, durSecs int64) int {
	days := dateutil.DaysBetween(anchor, rangeStart) - int(durSecs/(24*60*60)) - 2
	if days <= 0 {
		return 0
	}
	switch r {
	case model.RecurrenceDaily:
		return days
	case model.RecurrenceWeekly:
		return days / 7
	default:
		return days / 31
	}
}

func makeOccurrence(ev model.Event, start, end time.Time) model.Occurrence {
	return model.Occurrence{
		ID:    ev.ID,
		Type:  ev.Type,
		Start: start,
		End:   end,
	}
}

// overlaps is the inclusive overlap test: a range touching the window at a
// single instant counts.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !aStart.After(bEnd)
}

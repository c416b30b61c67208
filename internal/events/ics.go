package events

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "buffcal/internal/log"
	"buffcal/internal/model"
)

// propBuffType carries the event type through ICS files.
const propBuffType = ical.ComponentProperty("X-BUFF-TYPE")

// ParseICS converts the VEVENTs of an ICS payload into events. The type is
// read from X-BUFF-TYPE, then CATEGORIES, then the summary. A VEVENT that
// cannot be converted is reported as a *model.EventError and skipped.
func ParseICS(body []byte) ([]model.Event, []error, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse ICS: %w", err)
	}

	var (
		out  []model.Event
		errs []error
	)
	for i, ve := range cal.Events() {
		ev, err := fromVEvent(ve)
		if err != nil {
			errs = append(errs, &model.EventError{Index: i, ID: ev.ID, Err: err})
			continue
		}
		out = append(out, ev)
	}
	return out, errs, nil
}

func fromVEvent(ve *ical.VEvent) (model.Event, error) {
	var ev model.Event

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("%w: DTSTART: %v", model.ErrMalformedEvent, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return ev, fmt.Errorf("%w: DTEND: %v", model.ErrMalformedEvent, err)
	}

	summary := propValue(ve, ical.ComponentPropertySummary)

	ev.ID = propValue(ve, ical.ComponentPropertyUniqueId)
	if ev.ID == "" {
		// Stable across reloads so day buckets keep the same identity.
		ev.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(summary+"@"+start.UTC().Format(time.RFC3339))).String()
	}

	ev.Type = model.EventType(propValue(ve, propBuffType))
	if ev.Type == "" {
		if cats := propValue(ve, ical.ComponentPropertyCategories); cats != "" {
			ev.Type = model.EventType(slug(strings.Split(cats, ",")[0]))
		} else {
			ev.Type = model.EventType(slug(summary))
		}
	}

	ev.StartTime = start.Unix()
	ev.EndTime = end.Unix()
	ev.RecurrenceType = model.RecurrenceNone

	if raw := propValue(ve, ical.ComponentPropertyRrule); raw != "" {
		ev.Recurring = true
		ev.RecurrenceType = recurrenceFromRRule(ev.ID, raw)
	}

	return ev, nil
}

// recurrenceFromRRule maps an RRULE onto the supported recurrence types.
// Rules with an interval other than 1 or an unsupported frequency map to a
// descriptive type that the expander treats as unknown.
func recurrenceFromRRule(id, raw string) model.RecurrenceType {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		appLog.Error("ics: failed to parse RRULE", err, "id", id, "rrule", raw)
		return model.RecurrenceType("invalid")
	}

	if opt.Count > 0 || !opt.Until.IsZero() || len(opt.Byweekday) > 0 || len(opt.Bymonthday) > 0 {
		appLog.Debug("ics: RRULE parts beyond FREQ are ignored", "id", id, "rrule", raw)
	}
	names, ok := freqNames[opt.Freq]
	if !ok {
		return model.RecurrenceType("unknown")
	}
	if opt.Interval > 1 {
		return model.RecurrenceType(fmt.Sprintf("every_%d_%s", opt.Interval, names[1]))
	}
	return model.RecurrenceType(names[0])
}

// freqNames maps an RRULE frequency to its recurrence type and unit. The
// daily, weekly and monthly names match the supported recurrence types.
var freqNames = map[rrule.Frequency][2]string{
	rrule.YEARLY:   {"yearly", "years"},
	rrule.MONTHLY:  {string(model.RecurrenceMonthly), "months"},
	rrule.WEEKLY:   {string(model.RecurrenceWeekly), "weeks"},
	rrule.DAILY:    {string(model.RecurrenceDaily), "days"},
	rrule.HOURLY:   {"hourly", "hours"},
	rrule.MINUTELY: {"minutely", "minutes"},
	rrule.SECONDLY: {"secondly", "seconds"},
}

// WriteICS writes occurrences as a calendar of single events. Every
// occurrence gets its own UID derived from the event ID and start.
func WriteICS(w io.Writer, occurrences []model.Occurrence, now time.Time) error {
	cal := ical.NewCalendar()
	cal.SetProductId("-//buffcal//buffcal//EN")
	cal.SetMethod(ical.MethodPublish)

	for _, occ := range occurrences {
		ve := cal.AddEvent(fmt.Sprintf("%s-%d", occ.ID, occ.Start.Unix()))
		ve.SetDtStampTime(now)
		ve.SetStartAt(occ.Start)
		ve.SetEndAt(occ.End)
		ve.SetSummary(occ.Type.Label())
		ve.SetProperty(propBuffType, string(occ.Type))
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write ICS: %w", err)
	}
	return nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

// slug turns a display name into a lower_snake_case tag.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}

package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"buffcal/internal/model"
)

// DecodeRecords decodes a JSON array of event records into one result per
// element. A malformed element yields an error result wrapping
// model.ErrMalformedEvent; the other elements are unaffected. A valid JSON
// document that is not an array decodes to no records.
func DecodeRecords(data []byte) ([]mo.Result[model.Event], error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("decode events: empty payload")
	}
	if data[0] != '[' {
		if !json.Valid(data) {
			return nil, errors.New("decode events: invalid JSON")
		}
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	out := make([]mo.Result[model.Event], 0, len(raws))
	for i, raw := range raws {
		out = append(out, decodeRecord(i, raw))
	}
	return out, nil
}

// Decode is DecodeRecords split into the accepted events and the per-record
// errors (*model.EventError), preserving input order in both.
func Decode(data []byte) ([]model.Event, []error, error) {
	results, err := DecodeRecords(data)
	if err != nil {
		return nil, nil, err
	}
	evs, errs := Partition(results)
	return evs, errs, nil
}

// Partition splits results into values and errors.
func Partition(results []mo.Result[model.Event]) ([]model.Event, []error) {
	evs := make([]model.Event, 0, len(results))
	var errs []error
	for _, r := range results {
		ev, err := r.Get()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		evs = append(evs, ev)
	}
	return evs, errs
}

func decodeRecord(index int, raw json.RawMessage) mo.Result[model.Event] {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return malformed(index, "", "record is not an object")
	}

	id, err := stringField(fields, "id")
	if err != nil {
		return malformed(index, "", "id: "+err.Error())
	}
	if id == "" {
		return malformed(index, "", "missing id")
	}

	ev := model.Event{ID: id, RecurrenceType: model.RecurrenceNone}

	if ev.StartTime, err = unixField(fields, "start_time"); err != nil {
		return malformed(index, id, "start_time: "+err.Error())
	}
	if ev.EndTime, err = unixField(fields, "end_time"); err != nil {
		return malformed(index, id, "end_time: "+err.Error())
	}

	typ, err := stringField(fields, "type")
	if err != nil {
		return malformed(index, id, "type: "+err.Error())
	}
	ev.Type = model.EventType(typ)

	if v, ok := fields["recurring"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &ev.Recurring); err != nil {
			return malformed(index, id, "recurring: not a boolean")
		}
	}

	rec, err := stringField(fields, "recurrence_type")
	if err != nil {
		return malformed(index, id, "recurrence_type: "+err.Error())
	}
	if rec != "" {
		ev.RecurrenceType = model.RecurrenceType(rec)
	}

	return mo.Ok(ev)
}

// stringField returns the string at key, or "" when absent or null.
func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	v, ok := fields[key]
	if !ok || isNull(v) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", errors.New("not a string")
	}
	return s, nil
}

// unixField reads a required unix timestamp in seconds. Numbers and numeric
// strings are accepted; fractional seconds are floored.
func unixField(fields map[string]json.RawMessage, key string) (int64, error) {
	v, ok := fields[key]
	if !ok || isNull(v) {
		return 0, errors.New("missing")
	}

	lit := string(v)
	var quoted string
	if json.Unmarshal(v, &quoted) == nil {
		lit = strings.TrimSpace(quoted)
	}

	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64/2 {
		return 0, fmt.Errorf("not a unix timestamp: %s", v)
	}
	return int64(math.Floor(f)), nil
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

func malformed(index int, id, reason string) mo.Result[model.Event] {
	return mo.Err[model.Event](&model.EventError{
		Index: index,
		ID:    id,
		Err:   fmt.Errorf("%w: %s", model.ErrMalformedEvent, reason),
	})
}

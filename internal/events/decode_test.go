package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buffcal/internal/model"
)

func TestDecode_ValidRecords(t *testing.T) {
	payload := `[
	  {"id": "a", "type": "double_xp", "start_time": 1700000000, "end_time": 1700003600,
	   "recurring": true, "recurrence_type": "weekly"},
	  {"id": "b", "start_time": 1700000000.9, "end_time": "1700007200"}
	]`

	evs, errs, err := Decode([]byte(payload))
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, evs, 2)

	assert.Equal(t, model.Event{
		ID:             "a",
		Type:           model.TypeDoubleXP,
		StartTime:      1700000000,
		EndTime:        1700003600,
		Recurring:      true,
		RecurrenceType: model.RecurrenceWeekly,
	}, evs[0])

	assert.Equal(t, int64(1700000000), evs[1].StartTime)
	assert.Equal(t, int64(1700007200), evs[1].EndTime)
	assert.Equal(t, model.RecurrenceNone, evs[1].RecurrenceType)
	assert.False(t, evs[1].Recurring)
}

func TestDecode_MalformedRecordsAreIsolated(t *testing.T) {
	payload := `[
	  {"id": "ok", "start_time": 10, "end_time": 20},
	  {"id": "no-start", "end_time": 20},
	  {"id": "bad-end", "start_time": 10, "end_time": "soon"},
	  {"start_time": 10, "end_time": 20},
	  {"id": "bad-flag", "start_time": 10, "end_time": 20, "recurring": "yes"},
	  42,
	  null,
	  {"id": "ok-2", "start_time": 30, "end_time": 40}
	]`

	results, err := DecodeRecords([]byte(payload))
	require.NoError(t, err)
	require.Len(t, results, 8)

	evs, errs := Partition(results)
	require.Len(t, evs, 2)
	assert.Equal(t, "ok", evs[0].ID)
	assert.Equal(t, "ok-2", evs[1].ID)

	require.Len(t, errs, 6)
	wantIdx := []int{1, 2, 3, 4, 5, 6}
	for i, e := range errs {
		assert.ErrorIs(t, e, model.ErrMalformedEvent)
		var evErr *model.EventError
		require.ErrorAs(t, e, &evErr)
		assert.Equal(t, wantIdx[i], evErr.Index)
	}
	assert.ErrorContains(t, errs[0], "no-start")
	assert.ErrorContains(t, errs[1], "end_time")
}

func TestDecode_NonArrayDocument(t *testing.T) {
	evs, errs, err := Decode([]byte(`{"events": []}`))
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.Empty(t, errs)
}

func TestDecode_InvalidPayload(t *testing.T) {
	for _, in := range []string{"", "   ", "[1, 2", "{oops"} {
		_, _, err := Decode([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

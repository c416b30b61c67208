package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buffcal/internal/model"
)

func TestBuild_MergesSegmentsIntoCells(t *testing.T) {
	today := time.Date(2025, 10, 16, 9, 15, 0, 0, time.UTC)
	w := model.NewWindow(today, 20)

	events := []model.Event{
		{
			ID:        "spans-midnight",
			Type:      model.TypeQuadrupleXP,
			StartTime: time.Date(2025, 10, 18, 22, 0, 0, 0, time.UTC).Unix(),
			EndTime:   time.Date(2025, 10, 19, 2, 0, 0, 0, time.UTC).Unix(),
		},
		{
			ID:             "weekly",
			Type:           model.TypeDoubleDropChance,
			StartTime:      time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC).Unix(),
			EndTime:        time.Date(2025, 10, 16, 14, 0, 0, 0, time.UTC).Unix(),
			Recurring:      true,
			RecurrenceType: model.RecurrenceWeekly,
		},
		{
			ID:        "broken",
			StartTime: 100,
			EndTime:   100,
		},
	}

	v := Build(events, w, today, Options{})

	require.Len(t, v.Expand.Errors, 1)
	assert.ErrorIs(t, v.Expand.Errors[0], model.ErrInvalidInterval)

	// Oct 16 + 19 days = Nov 4, so October and November are shown.
	require.Len(t, v.Months, 2)
	oct := v.Months[0]
	require.Len(t, oct.Cells, 31)

	var todays []int
	for _, c := range oct.Cells {
		if c.IsToday {
			todays = append(todays, c.Date.Day())
		}
		if !c.InRange {
			assert.Nil(t, c.Segments)
		}
	}
	assert.Equal(t, []int{16}, todays)

	assert.Len(t, oct.Cells[15].Segments, 1) // Oct 16 weekly
	assert.Len(t, oct.Cells[17].Segments, 1) // Oct 18 22:00-23:59:59.999
	assert.Len(t, oct.Cells[18].Segments, 1) // Oct 19 00:00-02:00
	assert.Len(t, oct.Cells[22].Segments, 1) // Oct 23 weekly
	assert.Empty(t, oct.Cells[0].Segments)

	nov := v.Months[1]
	assert.True(t, nov.Cells[3].InRange)
	assert.False(t, nov.Cells[4].InRange)
	assert.Len(t, nov.Cells[3].Segments, 0)
	assert.Len(t, v.Days, 20)
}

func TestLayout_TodayOutsideWindow(t *testing.T) {
	w := model.NewWindow(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 10)

	months := Layout(make([][]model.Segment, 10), w, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	require.Len(t, months, 1)
	for _, c := range months[0].Cells {
		assert.False(t, c.IsToday)
	}
}

package segment

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buffcal/internal/dateutil"
	"buffcal/internal/model"
)

func occ(id string, start, end time.Time) model.Occurrence {
	return model.Occurrence{ID: id, Type: model.TypeTripleXP, Start: start, End: end}
}

func TestByDay_AllOffsetsPresent(t *testing.T) {
	ws := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	b := ByDay(nil, ws, 5)

	require.Len(t, b, 5)
	for i := range b {
		assert.NotNil(t, b[i])
		assert.Empty(t, b[i])
	}
	assert.Nil(t, b.Day(-1))
	assert.Nil(t, b.Day(5))
}

func TestByDay_SplitsAtMidnight(t *testing.T) {
	ws := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, 6, 3, 22, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 4, 2, 0, 0, 0, time.UTC)

	b := ByDay([]model.Occurrence{occ("night", start, end)}, ws, 7)

	require.Len(t, b.Day(2), 1)
	require.Len(t, b.Day(3), 1)
	assert.Equal(t, 2, b.Len())

	first, second := b.Day(2)[0], b.Day(3)[0]
	assert.Equal(t, start, first.Start)
	assert.Equal(t, dateutil.EndOfDay(start), first.End)
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), second.Start)
	assert.Equal(t, end, second.End)

	// Adjacent, neither overlapping nor leaving a gap.
	assert.Equal(t, time.Millisecond, second.Start.Sub(first.End))
}

func TestByDay_ClipsToWindow(t *testing.T) {
	ws := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	b := ByDay([]model.Occurrence{occ("long", start, end)}, ws, 3)

	require.Equal(t, 3, b.Len())
	assert.Equal(t, ws, b.Day(0)[0].Start)
	assert.Equal(t, time.Date(2025, 6, 3, 23, 59, 59, int(999*time.Millisecond), time.UTC), b.Day(2)[0].End)
}

func TestByDay_DropsOutsideWindow(t *testing.T) {
	ws := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	occs := []model.Occurrence{
		occ("before", ws.Add(-3*time.Hour), ws.Add(-time.Hour)),
		occ("after", ws.Add(72*time.Hour), ws.Add(73*time.Hour)),
	}

	b := ByDay(occs, ws, 3)

	assert.Equal(t, 0, b.Len())
}

func TestByDay_SortsStable(t *testing.T) {
	ws := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return ws.Add(time.Duration(h) * time.Hour) }
	occs := []model.Occurrence{
		occ("c", at(9), at(10)),
		occ("a", at(1), at(2)),
		occ("b1", at(5), at(6)),
		occ("b2", at(5), at(8)),
	}

	b := ByDay(occs, ws, 1)

	var ids []string
	for _, s := range b.Day(0) {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)
}

// A multi-day occurrence fully inside the window must be rebuilt exactly by
// its segments: each segment in exactly one day, consecutive segments
// touching at the day boundary.
func TestByDay_PartitionReconstructsInterval(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Crosses the 2025-11-02 fall-back transition (25 hour day).
	ws := time.Date(2025, 10, 30, 0, 0, 0, 0, ny)
	start := time.Date(2025, 10, 31, 15, 30, 0, 0, ny)
	end := time.Date(2025, 11, 3, 9, 0, 0, 0, ny)

	b := ByDay([]model.Occurrence{occ("span", start, end)}, ws, 7)

	var segs []model.Segment
	for i, day := range b {
		for _, s := range day {
			assert.True(t, dateutil.IsSameDay(s.Start, s.End), "segment spans days")
			assert.Equal(t, i, dateutil.DaysBetween(ws, s.Start))
			segs = append(segs, s)
		}
	}

	require.Len(t, segs, 4)
	assert.True(t, segs[0].Start.Equal(start))
	assert.True(t, segs[len(segs)-1].End.Equal(end))
	for i := 1; i < len(segs); i++ {
		assert.Equal(t, time.Millisecond, segs[i].Start.Sub(segs[i-1].End))
		assert.Equal(t, 0, segs[i].Start.Hour())
	}
}

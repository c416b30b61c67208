// Package segment splits occurrences into per-day segments and buckets them
// by day offset from the start of a window.
package segment

import (
	"sort"
	"time"

	"buffcal/internal/dateutil"
	"buffcal/internal/model"
)

// Buckets holds one slice of segments per day of the window, indexed by day
// offset. Every offset in [0, totalDays) is present, possibly empty.
type Buckets [][]model.Segment

// Day returns the segments of day offset i, or nil when i is outside the window.
func (b Buckets) Day(i int) []model.Segment {
	if i < 0 || i >= len(b) {
		return nil
	}
	return b[i]
}

// Len returns the total number of segments across all days.
func (b Buckets) Len() int {
	n := 0
	for _, day := range b {
		n += len(day)
	}
	return n
}

// ByDay clips each occurrence to the window of totalDays days starting at
// windowStart and splits it at local day boundaries. A segment ending a day
// ends at 23:59:59.999; the next one starts at 00:00:00.000. Segments within
// a day are sorted by start, keeping input order for equal starts.
func ByDay(occurrences []model.Occurrence, windowStart time.Time, totalDays int) Buckets {
	if totalDays < 0 {
		totalDays = 0
	}
	buckets := make(Buckets, totalDays)
	for i := range buckets {
		buckets[i] = []model.Segment{}
	}
	if totalDays == 0 {
		return buckets
	}

	loc := windowStart.Location()
	windowEnd := dateutil.AddDays(windowStart, totalDays).Add(-dateutil.LastMillisecond)

	for _, occ := range occurrences {
		start := later(occ.Start.In(loc), windowStart)
		end := earlier(occ.End.In(loc), windowEnd)
		if end.Before(start) {
			continue
		}

		lastDay := dateutil.StartOfDay(end)
		for day := dateutil.StartOfDay(start); !day.After(lastDay); day = dateutil.AddDays(day, 1) {
			dayEnd := dateutil.EndOfDay(day)
			segStart := later(start, day)
			segEnd := earlier(end, dayEnd)
			if segEnd.Before(segStart) {
				continue
			}

			idx := dateutil.DaysBetween(windowStart, day)
			if idx < 0 || idx >= totalDays {
				continue
			}
			buckets[idx] = append(buckets[idx], model.Segment{
				ID:    occ.ID,
				Type:  occ.Type,
				Start: segStart,
				End:   segEnd,
			})
		}
	}

	for _, day := range buckets {
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].Start.Before(day[j].Start)
		})
	}

	return buckets
}

func later(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}

func earlier(a, b time.Time) time.Time {
	if a.After(b) {
		return b
	}
	return a
}

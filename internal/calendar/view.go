// Package calendar assembles the presentation view of a window: day buckets
// of segments laid out on month grids, with today highlighted.
package calendar

import (
	"time"

	"buffcal/internal/dateutil"
	"buffcal/internal/expand"
	"buffcal/internal/grid"
	"buffcal/internal/model"
	"buffcal/internal/segment"
)

// Cell is one day of a month grid with its segments.
type Cell struct {
	Date     time.Time
	Offset   int
	InRange  bool
	IsToday  bool
	Segments []model.Segment
}

// MonthView is a month grid ready for rendering.
type MonthView struct {
	Month grid.Month
	Cells []Cell
}

// View is the full presentation input for a window.
type View struct {
	Window model.Window
	Today  time.Time
	Days   segment.Buckets
	Months []MonthView
	Expand expand.Result
}

// Options tune how a View is built.
type Options struct {
	MaxOccurrencesPerEvent int
}

// Build expands events over w, splits the occurrences per day and lays the
// days out on month grids. today is only used to flag the matching cell.
func Build(events []model.Event, w model.Window, today time.Time, opts Options) View {
	cfg := expand.ConfigForWindow(w)
	cfg.MaxOccurrencesPerEvent = opts.MaxOccurrencesPerEvent

	res := expand.Expand(events, cfg)
	days := segment.ByDay(res.Occurrences, w.Start, w.TotalDays)

	return View{
		Window: w,
		Today:  today,
		Days:   days,
		Months: Layout(days, w, today),
		Expand: res,
	}
}

// Layout associates day buckets with the month grids covering w.
func Layout(days segment.Buckets, w model.Window, today time.Time) []MonthView {
	today = today.In(w.Start.Location())

	months := grid.Build(w.Start, w.TotalDays)
	out := make([]MonthView, 0, len(months))
	for _, m := range months {
		mv := MonthView{Month: m, Cells: make([]Cell, 0, len(m.Days))}
		for _, d := range m.Days {
			c := Cell{
				Date:    d.Date,
				Offset:  d.Offset,
				InRange: d.InRange,
				IsToday: dateutil.IsSameDay(d.Date, today),
			}
			if d.InRange {
				c.Segments = days.Day(d.Offset)
			}
			mv.Cells = append(mv.Cells, c)
		}
		out = append(out, mv)
	}
	return out
}

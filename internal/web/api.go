package web

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"buffcal/internal/calendar"
	"buffcal/internal/dateutil"
	"buffcal/internal/events"
	"buffcal/internal/grid"
	"buffcal/internal/model"
)

const dateLayout = "2006-01-02"

// occurrenceDTO is an occurrence or a day segment. Times in API responses
// are unix seconds, matching the feed format.
type occurrenceDTO struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

type windowDTO struct {
	Start     int64  `json:"range_start"`
	End       int64  `json:"range_end"`
	TotalDays int    `json:"total_days"`
	Today     string `json:"today"`
	Timezone  string `json:"timezone"`
}

type feedDTO struct {
	LoadedAt  int64 `json:"loaded_at"`
	Demo      bool  `json:"demo"`
	FromCache bool  `json:"from_cache"`
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	windowDTO
	Feed        feedDTO         `json:"feed"`
	Occurrences []occurrenceDTO `json:"occurrences"`
	// Errors lists per-event decode and expansion failures.
	Errors    []string `json:"errors"`
	Truncated []string `json:"truncated,omitempty"`
}

type dayDTO struct {
	Offset   int             `json:"offset"`
	Date     string          `json:"date"`
	Segments []occurrenceDTO `json:"segments"`
}

type cellDTO struct {
	Date     string          `json:"date"`
	InRange  bool            `json:"in_range"`
	Today    bool            `json:"today,omitempty"`
	Segments []occurrenceDTO `json:"segments,omitempty"`
}

type monthDTO struct {
	Year            int       `json:"year"`
	Month           int       `json:"month"`
	Name            string    `json:"name"`
	LeadingSpacers  int       `json:"leading_spacers"`
	TrailingSpacers int       `json:"trailing_spacers"`
	Weeks           int       `json:"weeks"`
	Cells           []cellDTO `json:"cells"`
}

// calendarResponse is the JSON response shape for /api/calendar.
type calendarResponse struct {
	windowDTO
	Feed   feedDTO    `json:"feed"`
	Days   []dayDTO   `json:"days"`
	Months []monthDTO `json:"months"`
}

// handleEvents returns the occurrences overlapping the window.
//
// GET /api/events?days=61
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	days, err := s.daysParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, batch, err := s.view(days)
	if err != nil {
		writeViewError(w, err)
		return
	}

	resp := eventsResponse{
		windowDTO:   newWindowDTO(v),
		Feed:        newFeedDTO(batch),
		Occurrences: make([]occurrenceDTO, 0, len(v.Expand.Occurrences)),
		Errors:      make([]string, 0, len(batch.Errors)+len(v.Expand.Errors)),
		Truncated:   v.Expand.TruncatedEvents,
	}
	for _, occ := range v.Expand.Occurrences {
		resp.Occurrences = append(resp.Occurrences, newOccurrenceDTO(occ.ID, occ.Type, occ.Start, occ.End))
	}
	for _, e := range batch.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	for _, e := range v.Expand.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendarJSON returns day buckets and month grids for the window.
//
// GET /api/calendar?days=61
func (s *Server) handleCalendarJSON(w http.ResponseWriter, r *http.Request) {
	days, err := s.daysParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, batch, err := s.view(days)
	if err != nil {
		writeViewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newCalendarResponse(v, batch))
}

// EncodeCalendar writes v in the /api/calendar JSON shape.
func EncodeCalendar(w io.Writer, v calendar.View, batch events.Batch) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newCalendarResponse(v, batch))
}

func newCalendarResponse(v calendar.View, batch events.Batch) calendarResponse {
	resp := calendarResponse{
		windowDTO: newWindowDTO(v),
		Feed:      newFeedDTO(batch),
		Days:      make([]dayDTO, 0, len(v.Days)),
		Months:    make([]monthDTO, 0, len(v.Months)),
	}
	for i, segs := range v.Days {
		resp.Days = append(resp.Days, dayDTO{
			Offset:   i,
			Date:     dateutil.AddDays(v.Window.Start, i).Format(dateLayout),
			Segments: segmentDTOs(segs),
		})
	}
	for _, mv := range v.Months {
		resp.Months = append(resp.Months, newMonthDTO(mv))
	}
	return resp
}

func newWindowDTO(v calendar.View) windowDTO {
	return windowDTO{
		Start:     v.Window.Start.Unix(),
		End:       v.Window.End.Unix(),
		TotalDays: v.Window.TotalDays,
		Today:     v.Today.Format(dateLayout),
		Timezone:  v.Window.Start.Location().String(),
	}
}

func newFeedDTO(b events.Batch) feedDTO {
	return feedDTO{LoadedAt: b.LoadedAt.Unix(), Demo: b.Demo, FromCache: b.FromCache}
}

func newOccurrenceDTO(id string, typ model.EventType, start, end time.Time) occurrenceDTO {
	return occurrenceDTO{
		ID:    id,
		Type:  string(typ),
		Label: typ.Label(),
		Start: start.Unix(),
		End:   end.Unix(),
	}
}

func segmentDTOs(segs []model.Segment) []occurrenceDTO {
	out := make([]occurrenceDTO, 0, len(segs))
	for _, seg := range segs {
		out = append(out, newOccurrenceDTO(seg.ID, seg.Type, seg.Start, seg.End))
	}
	return out
}

func newMonthDTO(mv calendar.MonthView) monthDTO {
	m := monthDTO{
		Year:            mv.Month.MonthStart.Year(),
		Month:           int(mv.Month.MonthStart.Month()),
		Name:            monthName(mv.Month),
		LeadingSpacers:  mv.Month.LeadingSpacers,
		TrailingSpacers: mv.Month.TrailingSpacers,
		Weeks:           mv.Month.Weeks(),
		Cells:           make([]cellDTO, 0, len(mv.Cells)),
	}
	for _, c := range mv.Cells {
		cell := cellDTO{
			Date:    c.Date.Format(dateLayout),
			InRange: c.InRange,
			Today:   c.IsToday,
		}
		if len(c.Segments) > 0 {
			cell.Segments = segmentDTOs(c.Segments)
		}
		m.Cells = append(m.Cells, cell)
	}
	return m
}

func monthName(m grid.Month) string {
	return m.MonthStart.Format("January 2006")
}

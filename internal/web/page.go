package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"buffcal/internal/calendar"
	appLog "buffcal/internal/log"
	"buffcal/internal/model"
)

//go:embed templates/calendar.html
var templateFS embed.FS

var calendarTmpl = template.Must(template.New("calendar.html").Funcs(template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04") },
	"label": func(t model.EventType) string { return t.Label() },
	"spacers": func(n int) []struct{} {
		return make([]struct{}, n)
	},
	"monthName": func(mv calendar.MonthView) string { return monthName(mv.Month) },
}).ParseFS(templateFS, "templates/calendar.html"))

type pageData struct {
	Title    string
	Today    string
	Timezone string
	Demo     bool
	Errors   int
	Months   []calendar.MonthView
	Weekdays []string
}

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// handleCalendarPage renders the month grids as HTML. The root element
// carries data-ready="true" once rendered so the capture can wait for it.
//
// GET /calendar?days=61
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	days, err := s.daysParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v, batch, err := s.view(days)
	if err != nil {
		writeViewError(w, err)
		return
	}

	data := pageData{
		Title:    "Buff calendar",
		Today:    v.Today.Format("Monday, January 2 2006"),
		Timezone: v.Window.Start.Location().String(),
		Demo:     batch.Demo,
		Errors:   len(batch.Errors) + len(v.Expand.Errors),
		Months:   v.Months,
		Weekdays: weekdays,
	}

	var buf bytes.Buffer
	if err := calendarTmpl.Execute(&buf, data); err != nil {
		appLog.Error("render calendar page failed", err)
		http.Error(w, "failed to render calendar", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

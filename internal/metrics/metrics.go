// Package metrics exposes Prometheus metrics for feed refreshes, event
// validation and expansion. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"buffcal/internal/model"
)

const namespace = "buffcal"

// Refresh results.
const (
	ResultOK    = "ok"
	ResultDemo  = "demo"
	ResultError = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	refreshTotal   *prometheus.CounterVec
	eventsLoaded   prometheus.Gauge
	eventErrors    *prometheus.CounterVec
	occurrences    prometheus.Gauge
	segments       prometheus.Gauge
	expandDuration prometheus.Histogram
	httpRequests   *prometheus.CounterVec
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Event feed refreshes by result.",
		}, []string{"result"}),
		eventsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_loaded",
			Help:      "Raw events in the current snapshot.",
		}),
		eventErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_errors_total",
			Help:      "Per-event validation failures by kind.",
		}, []string{"kind"}),
		occurrences: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "occurrences",
			Help:      "Occurrences produced by the last expansion.",
		}),
		segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segments",
			Help:      "Day segments produced by the last expansion.",
		}),
		expandDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expand_duration_seconds",
			Help:      "Time spent building a calendar view.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
	}

	m.registry.MustRegister(
		m.refreshTotal,
		m.eventsLoaded,
		m.eventErrors,
		m.occurrences,
		m.segments,
		m.expandDuration,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRefresh counts a reload by result and, unless it failed, records
// how many events the batch holds.
func (m *Metrics) ObserveRefresh(result string, events int) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
	if result != ResultError {
		m.eventsLoaded.Set(float64(events))
	}
}

// ObserveEventErrors counts per-event failures by kind.
func (m *Metrics) ObserveEventErrors(errs []error) {
	if m == nil {
		return
	}
	for _, err := range errs {
		m.eventErrors.WithLabelValues(ErrorKind(err)).Inc()
	}
}

// ObserveExpand records how long one expansion took and what it produced.
func (m *Metrics) ObserveExpand(d time.Duration, occurrences, segments int) {
	if m == nil {
		return
	}
	m.expandDuration.Observe(d.Seconds())
	m.occurrences.Set(float64(occurrences))
	m.segments.Set(float64(segments))
}

// ObserveHTTP counts a served request by route and status code.
func (m *Metrics) ObserveHTTP(path string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

// ErrorKind maps an event error onto a low-cardinality label value.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, model.ErrUnknownRecurrenceType):
		return "unknown_recurrence_type"
	case errors.Is(err, model.ErrMalformedEvent):
		return "malformed_event"
	}
	return "other"
}

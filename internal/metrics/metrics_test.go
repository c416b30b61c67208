package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buffcal/internal/model"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&model.EventError{Err: model.ErrInvalidInterval}, "invalid_interval"},
		{&model.EventError{Err: model.ErrUnknownRecurrenceType}, "unknown_recurrence_type"},
		{&model.EventError{Err: errors.Join(model.ErrMalformedEvent, errors.New("x"))}, "malformed_event"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveRefresh(ResultOK, 12)
	m.ObserveRefresh(ResultError, 0)
	m.ObserveEventErrors([]error{
		&model.EventError{Err: model.ErrInvalidInterval},
		&model.EventError{Err: model.ErrInvalidInterval},
	})
	m.ObserveExpand(3*time.Millisecond, 40, 55)
	m.ObserveHTTP("/api/events", http.StatusOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues(ResultError)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.eventsLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventErrors.WithLabelValues("invalid_interval")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.occurrences))
	assert.Equal(t, 55.0, testutil.ToFloat64(m.segments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/events", "200")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "buffcal_refresh_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRefresh(ResultOK, 1)
	m.ObserveEventErrors([]error{model.ErrInvalidInterval})
	m.ObserveExpand(time.Second, 1, 1)
	m.ObserveHTTP("/", 200)
	assert.Nil(t, m.Registry())
}

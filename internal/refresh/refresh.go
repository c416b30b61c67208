// Package refresh keeps the latest event snapshot and reloads it on a cron
// schedule.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"buffcal/internal/events"
	appLog "buffcal/internal/log"
	"buffcal/internal/metrics"
)

// Loader is satisfied by *events.Loader.
type Loader interface {
	Load(ctx context.Context) (events.Batch, error)
}

// Refresher holds the current batch. Readers always see a complete batch;
// a failed reload keeps the previous one.
type Refresher struct {
	loader  Loader
	metrics *metrics.Metrics

	mu      sync.RWMutex
	current events.Batch
	loaded  bool
	lastErr error

	// OnRefresh, if set, runs after every successful reload.
	OnRefresh func(ctx context.Context, b events.Batch)

	cron *cron.Cron
	stop chan struct{}
}

func New(loader Loader, m *metrics.Metrics) *Refresher {
	return &Refresher{loader: loader, metrics: m}
}

// Snapshot returns the current batch and whether one has been loaded yet.
func (r *Refresher) Snapshot() (events.Batch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.loaded
}

// LastError returns the error of the most recent reload, or nil.
func (r *Refresher) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Refresh reloads the feed once.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := time.Now()
	b, err := r.loader.Load(ctx)

	r.mu.Lock()
	r.lastErr = err
	if err == nil {
		r.current = b
		r.loaded = true
	}
	r.mu.Unlock()

	if err != nil {
		r.metrics.ObserveRefresh(metrics.ResultError, 0)
		appLog.Error("refresh failed", err, "elapsed", time.Since(start))
		return err
	}

	result := metrics.ResultOK
	if b.Demo {
		result = metrics.ResultDemo
	}
	r.metrics.ObserveRefresh(result, len(b.Events))
	r.metrics.ObserveEventErrors(b.Errors)
	appLog.Debug("refresh done",
		"events", len(b.Events),
		"errors", len(b.Errors),
		"demo", b.Demo,
		"from_cache", b.FromCache,
		"elapsed", time.Since(start),
	)

	if r.OnRefresh != nil {
		r.OnRefresh(ctx, b)
	}
	return nil
}

// Start schedules Refresh on schedule (standard five-field cron syntax). It does
// not run an initial refresh. The schedule stops when ctx is cancelled.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if ctx.Err() != nil {
			return
		}
		_ = r.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	stop := make(chan struct{})
	r.mu.Lock()
	r.cron = c
	r.stop = stop
	r.mu.Unlock()

	c.Start()
	appLog.Info("refresh scheduled", "cron", schedule)

	go func() {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.stop == stop {
				r.cron, r.stop = nil, nil
				close(stop)
			}
			r.mu.Unlock()
			<-c.Stop().Done()
		case <-stop:
		}
	}()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish. It is
// safe to call more than once.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c, stop := r.cron, r.stop
	r.cron, r.stop = nil, nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	close(stop)
	<-c.Stop().Done()
}

// ValidateSchedule reports whether schedule is a valid five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return nil
}

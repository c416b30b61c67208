package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buffcal/internal/config"
	appLog "buffcal/internal/log"
	"buffcal/internal/model"
)

// Batch is the outcome of loading the event feed once.
type Batch struct {
	Events []model.Event
	// Errors holds per-record decode failures; the batch is still usable.
	Errors    []error
	FromCache bool
	// Demo is set when Events are the built-in demo data.
	Demo     bool
	LoadedAt time.Time
}

// Loader fetches and decodes the configured feed.
type Loader struct {
	Source       Source
	Format       string
	DemoFallback bool
	// Now returns the current time; it seeds the demo data.
	Now func() time.Time
}

// NewLoader builds a Loader from configuration. A config without a URL or
// path yields a loader that always serves demo data.
func NewLoader(cfg *config.Config) *Loader {
	l := &Loader{
		Format:       cfg.Source.Type,
		DemoFallback: cfg.DemoFallback,
		Now:          time.Now,
	}
	switch {
	case cfg.Source.URL != "":
		l.Source = NewHTTPSource(cfg.Source.URL, cfg.CacheDir)
	case cfg.Source.Path != "":
		l.Source = FileSource{Path: cfg.Source.Path}
	}
	return l
}

// Load fetches and decodes the feed. When that fails and DemoFallback is
// set, the demo events are returned together with a nil error.
func (l *Loader) Load(ctx context.Context) (Batch, error) {
	now := l.Now()
	b, err := l.load(ctx)
	if err == nil {
		b.LoadedAt = now
		return b, nil
	}
	if !l.DemoFallback {
		return Batch{}, err
	}
	appLog.Error("events load failed; using demo events", err)
	return Batch{Events: DemoEvents(now), Demo: true, LoadedAt: now}, nil
}

func (l *Loader) load(ctx context.Context) (Batch, error) {
	if l.Source == nil {
		return Batch{}, errors.New("no event source configured")
	}

	body, fromCache, err := l.Source.Fetch(ctx)
	if err != nil {
		return Batch{}, err
	}

	var (
		evs  []model.Event
		errs []error
	)
	switch l.Format {
	case config.SourceICS:
		evs, errs, err = ParseICS(body)
	case config.SourceJSON, "":
		evs, errs, err = Decode(body)
	default:
		err = fmt.Errorf("unsupported source format %q", l.Format)
	}
	if err != nil {
		return Batch{}, fmt.Errorf("%s: %w", l.Source.Name(), err)
	}

	for _, e := range errs {
		appLog.Error("events: skipped record", e, "source", l.Source.Name())
	}
	appLog.Info("events loaded",
		"source", l.Source.Name(),
		"event_count", len(evs),
		"rejected", len(errs),
		"from_cache", fromCache,
	)
	return Batch{Events: evs, Errors: errs, FromCache: fromCache}, nil
}

package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buffcal/internal/config"
)

const feed = `[{"id": "a", "type": "double_xp", "start_time": 1700000000, "end_time": 1700003600}]`

func TestHTTPSource_ConditionalRequestsAndFallback(t *testing.T) {
	var hits atomic.Int32
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if down.Load() {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/events.json?token=secret", t.TempDir())
	ctx := context.Background()

	body, fromCache, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.JSONEq(t, feed, string(body))

	body, fromCache, err = src.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, fromCache, "304 should be served from cache")
	assert.JSONEq(t, feed, string(body))

	down.Store(true)
	body, fromCache, err = src.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.JSONEq(t, feed, string(body))
	assert.Equal(t, int32(3), hits.Load())

	assert.NotContains(t, src.Name(), "secret")
}

func TestHTTPSource_ErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, _, err := NewHTTPSource(srv.URL, t.TempDir()).Fetch(context.Background())
	assert.ErrorContains(t, err, "404")
}

func TestLoader_FileAndDemoFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "x", "start_time": 1, "end_time": 2}, {"id": "y"}]`), 0o600))

	now := time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)
	cfg := config.DefaultConfig()
	cfg.Source = config.SourceConfig{Type: config.SourceJSON, Path: path}

	l := NewLoader(cfg)
	l.Now = func() time.Time { return now }

	b, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, b.Demo)
	assert.Len(t, b.Events, 1)
	assert.Len(t, b.Errors, 1)
	assert.Equal(t, now, b.LoadedAt)

	cfg.Source.Path = filepath.Join(dir, "missing.json")
	l = NewLoader(cfg)
	l.Now = func() time.Time { return now }

	b, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Demo)
	assert.Equal(t, DemoEvents(now), b.Events)

	l.DemoFallback = false
	_, err = l.Load(context.Background())
	assert.Error(t, err)
}

func TestDemoEventsAreValid(t *testing.T) {
	for _, ev := range DemoEvents(time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)) {
		assert.NoError(t, ev.Validate(), ev.ID)
		assert.True(t, ev.Type.Known(), ev.ID)
	}
}

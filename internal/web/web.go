package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"buffcal/internal/calendar"
	"buffcal/internal/config"
	"buffcal/internal/events"
	appLog "buffcal/internal/log"
	"buffcal/internal/metrics"
	"buffcal/internal/model"
)

// maxDays bounds the ?days= query parameter.
const maxDays = 366

// viewCacheTTL bounds how long a built view is reused for the same batch
// and window.
const viewCacheTTL = 30 * time.Second

// errNotLoaded is returned while no event batch has been loaded yet.
var errNotLoaded = errors.New("events not loaded yet")

// Snapshotter provides the current event batch. *refresh.Refresher
// implements it.
type Snapshotter interface {
	Snapshot() (events.Batch, bool)
}

// Server provides the calendar page, its JSON APIs and metrics.
type Server struct {
	cfg     *config.Config
	loc     *time.Location
	source  Snapshotter
	metrics *metrics.Metrics
	now     func() time.Time
	mux     *http.ServeMux

	// In-memory cache of the last built view to avoid expanding on every
	// request.
	viewMu    sync.RWMutex
	viewCache *viewCache
	// countedAt is the LoadedAt of the last batch whose expansion errors
	// were counted in metrics.
	countedAt time.Time
}

type viewCache struct {
	key       viewKey
	view      calendar.View
	batch     events.Batch
	updatedAt time.Time
}

type viewKey struct {
	loadedAt time.Time
	start    time.Time
	days     int
}

// Option customizes a Server.
type Option func(*Server)

// WithClock sets the clock that decides which day is "today".
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithMetrics enables request and expansion metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, source Snapshotter, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		loc:    ResolveLocationOrLocal(cfg.Timezone),
		source: source,
		now:    time.Now,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Listen binds cfg.Listen. Requests are accepted once Serve runs.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	return ln, nil
}

// Serve serves HTTP on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	return nil
}

// Run listens on cfg.Listen and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials mean auth is off.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="buffcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.handle("GET /health", s.handleHealth)
	s.handle("GET /api/events", s.handleEvents)
	s.handle("GET /api/calendar", s.handleCalendarJSON)
	s.handle("GET /calendar", s.handleCalendarPage)
	s.handle("GET /preview.png", s.handlePreview)
	s.handle("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/calendar", http.StatusFound)
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// handle registers h and records its status codes under pattern.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveHTTP(r.URL.Path, rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured PNG from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Capture.Output == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, s.cfg.Capture.Output)
}

// view returns the calendar view for the requested number of days starting
// today, together with the batch it was built from.
func (s *Server) view(days int) (calendar.View, events.Batch, error) {
	batch, ok := s.source.Snapshot()
	if !ok {
		return calendar.View{}, events.Batch{}, errNotLoaded
	}

	today := s.now().In(s.loc)
	w := model.NewWindow(today, days)
	key := viewKey{loadedAt: batch.LoadedAt, start: w.Start, days: w.TotalDays}

	s.viewMu.RLock()
	vc := s.viewCache
	s.viewMu.RUnlock()
	if vc != nil && vc.key == key && s.now().Sub(vc.updatedAt) < viewCacheTTL {
		return vc.view, vc.batch, nil
	}

	start := time.Now()
	v := calendar.Build(batch.Events, w, today, calendar.Options{
		MaxOccurrencesPerEvent: s.cfg.MaxOccurrencesPerEvent,
	})
	s.metrics.ObserveExpand(time.Since(start), len(v.Expand.Occurrences), v.Days.Len())

	s.viewMu.Lock()
	if !batch.LoadedAt.Equal(s.countedAt) {
		s.countedAt = batch.LoadedAt
		s.metrics.ObserveEventErrors(v.Expand.Errors)
	}
	s.viewCache = &viewCache{key: key, view: v, batch: batch, updatedAt: s.now()}
	s.viewMu.Unlock()

	if len(v.Expand.TruncatedEvents) > 0 {
		appLog.Info("expansion capped", "events", v.Expand.TruncatedEvents)
	}
	return v, batch, nil
}

// daysParam reads ?days=, defaulting to the configured horizon.
func (s *Server) daysParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return s.cfg.HorizonDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxDays {
		return 0, fmt.Errorf("days must be an integer between 1 and %d", maxDays)
	}
	return n, nil
}

// ResolveLocationOrLocal loads the named zone, falling back to time.Local.
func ResolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeViewError maps a view error onto a response.
func writeViewError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNotLoaded) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	appLog.Error("build calendar view failed", err)
	writeError(w, http.StatusInternalServerError, "failed to build calendar")
}

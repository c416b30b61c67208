package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	appLog "buffcal/internal/log"
)

// Source produces the raw payload of an event feed.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Fetch returns the payload and whether it came from a local cache.
	Fetch(ctx context.Context) (body []byte, fromCache bool, err error)
}

// FileSource reads the payload from a local file.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Fetch(_ context.Context) ([]byte, bool, error) {
	body, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, false, fmt.Errorf("read events file: %w", err)
	}
	return body, false, nil
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HTTPSource fetches the payload over HTTP with conditional requests
// (ETag / Last-Modified) backed by a disk cache. When the server is
// unreachable or answers with an error, the last cached body is served.
type HTTPSource struct {
	URL      string
	client   *http.Client
	cacheDir string
}

// NewHTTPSource creates an HTTPSource caching under cacheDir.
func NewHTTPSource(url, cacheDir string) *HTTPSource {
	if cacheDir == "" {
		cacheDir = "./var/cache"
	}
	return &HTTPSource{
		URL: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

func (s *HTTPSource) Name() string { return redactURL(s.URL) }

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, bool, error) {
	if s.URL == "" {
		return nil, false, errors.New("source URL is empty")
	}

	cachePath := s.cachePath()
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, false, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, false, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("events fetch network error, using cached body", err, "url", s.Name())
			return cachedBody, true, nil
		}
		return nil, false, fmt.Errorf("fetch events: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("read events body: %w", err)
		}
		newMeta := cacheEntry{
			URL:          s.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("events cache save failed", err, "url", s.Name())
		}
		appLog.Debug("events fetch success", "url", s.Name(), "bytes", len(body))
		return body, false, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, false, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Debug("events fetch not modified; using cache", "url", s.Name())
		return cachedBody, true, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("events fetch non-OK, using cached body", errors.New(resp.Status), "url", s.Name(), "status", resp.StatusCode)
			return cachedBody, true, nil
		}
		return nil, false, fmt.Errorf("fetch events: %s", resp.Status)
	}
}

func (s *HTTPSource) cachePath() string {
	sum := sha256.Sum256([]byte(s.URL))
	return filepath.Join(s.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host of u for logging.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "url://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}

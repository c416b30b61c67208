package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SourceJSON = "json"
	SourceICS  = "ics"

	defaultListen      = "127.0.0.1:8080"
	defaultHorizonDays = 61
	defaultRefreshCron = "*/15 * * * *"
	defaultCacheDir    = "./var/cache"
	defaultMaxPerEvent = 5000
)

// SourceConfig describes where raw event records come from. Exactly one of
// URL or Path is used; URL wins when both are set.
type SourceConfig struct {
	// Type is the payload format: "json" (array of event records) or "ics".
	Type string `yaml:"type" json:"type"`
	URL  string `yaml:"url,omitempty" json:"url,omitempty"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// CaptureConfig controls PNG capture of the rendered calendar page.
type CaptureConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Output  string `yaml:"output" json:"output"`
	Width   int    `yaml:"width,omitempty" json:"width,omitempty"`
	Height  int    `yaml:"height,omitempty" json:"height,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone of the calendar (e.g. "Europe/Berlin").
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// HorizonDays is the number of days shown, starting today.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used to reload events from the source.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Source SourceConfig `yaml:"source" json:"source"`

	// DemoFallback substitutes built-in demo events when the source fails.
	DemoFallback bool `yaml:"demo_fallback" json:"demo_fallback"`

	// MaxOccurrencesPerEvent caps recurrence expansion per event.
	MaxOccurrencesPerEvent int `yaml:"max_occurrences_per_event" json:"max_occurrences_per_event"`

	// CacheDir holds the HTTP source cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                 defaultListen,
		HorizonDays:            defaultHorizonDays,
		RefreshCron:            defaultRefreshCron,
		Source:                 SourceConfig{Type: SourceJSON, Path: "./events.json"},
		DemoFallback:           true,
		MaxOccurrencesPerEvent: defaultMaxPerEvent,
		CacheDir:               defaultCacheDir,
		Capture:                CaptureConfig{Output: "./var/preview.png"},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	c.Source.Type = strings.ToLower(strings.TrimSpace(c.Source.Type))
	if c.Source.Type == "" {
		if strings.HasSuffix(strings.ToLower(c.Source.URL+c.Source.Path), ".ics") {
			c.Source.Type = SourceICS
		} else {
			c.Source.Type = SourceJSON
		}
	}
	if c.MaxOccurrencesPerEvent <= 0 {
		c.MaxOccurrencesPerEvent = defaultMaxPerEvent
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.Capture.Output == "" {
		c.Capture.Output = "./var/preview.png"
	}
}

// Validate reports configuration errors Normalize cannot repair.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceJSON, SourceICS:
	default:
		return fmt.Errorf("config: unsupported source type %q", c.Source.Type)
	}
	if c.Source.URL == "" && c.Source.Path == "" && !c.DemoFallback {
		return errors.New("config: source needs a url or path when demo_fallback is off")
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := Config{DemoFallback: true}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".buffcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultHorizonDays, cfg.HorizonDays)
	assert.Equal(t, SourceJSON, cfg.Source.Type)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_NormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
timezone: Europe/Berlin
source:
  url: https://example.com/buffs.ics
capture:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, SourceICS, cfg.Source.Type)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, 61, cfg.HorizonDays)
	assert.Equal(t, defaultRefreshCron, cfg.RefreshCron)
	assert.True(t, cfg.DemoFallback)
	assert.True(t, cfg.Capture.Enabled)
	assert.Equal(t, "./var/preview.png", cfg.Capture.Output)
}

func TestLoad_RejectsUnknownSourceType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  type: xml\n  path: a.xml\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported source type")
}

func TestLoad_RequiresSourceWithoutFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("demo_fallback: false\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon_days: [1, 2"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config file")
}

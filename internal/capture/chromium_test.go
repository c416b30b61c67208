package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buffcal/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Listen = "127.0.0.1:9000"
	cfg.Capture.Width = 800

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "http://127.0.0.1:9000/calendar", opts.URL)
	assert.Equal(t, cfg.Capture.Output, opts.OutputPath)

	require.NoError(t, opts.applyDefaults())
	assert.Equal(t, 800, opts.Width)
	assert.Equal(t, DefaultHeight, opts.Height)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
}

func TestCalendarPNG_RequiresURLAndOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.ErrorContains(t, CalendarPNG(ctx, Options{OutputPath: "x.png"}), "URL is required")
	assert.ErrorContains(t, CalendarPNG(ctx, Options{URL: "http://localhost"}), "OutputPath is required")
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "preview.png")

	require.NoError(t, writeFileAtomic(path, []byte("one")))
	require.NoError(t, writeFileAtomic(path, []byte("two")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

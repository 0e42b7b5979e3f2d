package library

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir for the rest of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"LIBRARY_DB", "LIBRARY_LOG_LEVEL", "LIBRARY_METRICS_ADDR", "LIBRARY_CATALOG"} {
		t.Setenv(k, "")
	}
	assert.Equal(t, Config{LogLevel: "info"}, LoadConfig())
}

func TestLoadConfigEnvWinsOverDotenv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("LIBRARY_LOG_LEVEL=debug\nLIBRARY_CATALOG=catalog.yaml\n"), 0o644))
	t.Setenv("LIBRARY_DB", "lib.db")
	t.Setenv("LIBRARY_CATALOG", "mine.yaml")
	t.Setenv("LIBRARY_METRICS_ADDR", "")
	t.Setenv("LIBRARY_LOG_LEVEL", "")
	os.Unsetenv("LIBRARY_LOG_LEVEL")

	cfg := LoadConfig()
	assert.Equal(t, "lib.db", cfg.DBPath)
	assert.Equal(t, "mine.yaml", cfg.CatalogPath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "item_id", "VID0001")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "item_id=VID0001")

	lvl, err := ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	_, err = NewLogger(&buf, "loud")
	assert.Error(t, err)
}

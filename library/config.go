package library

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings shared by the binaries.
type Config struct {
	DBPath      string // empty keeps everything in memory
	LogLevel    string
	MetricsAddr string // empty disables the /metrics listener
	CatalogPath string // empty means the bundled sample catalog
}

// LoadConfig reads .env files and the environment. Values already present in
// the environment win over the files.
func LoadConfig() Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return Config{
		DBPath:      getEnv("LIBRARY_DB", ""),
		LogLevel:    getEnv("LIBRARY_LOG_LEVEL", "info"),
		MetricsAddr: getEnv("LIBRARY_METRICS_ADDR", ""),
		CatalogPath: getEnv("LIBRARY_CATALOG", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

// NewLogger builds the text logger used by the binaries.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

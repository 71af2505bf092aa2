package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/climate-data-etl/internal/config"
)

// NewLogger builds the process logger from config. Logs go to stderr so the
// report on stdout stays machine-readable.
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLoggerTo(os.Stderr, cfg)
}

func newLoggerTo(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

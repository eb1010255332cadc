// Package logger builds the structured loggers used across finnews.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/seenimoa/finnews/internal/config"
)

// New constructs a logger for service writing to stderr at the configured
// level and format.
func New(service string, cfg config.LoggingConfig) *slog.Logger {
	return NewWithWriter(os.Stderr, service, cfg)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, service string, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", service)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

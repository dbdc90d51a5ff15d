package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BearBump/TrackNotify/config"
)

// SetupLogging installs the process-wide slog logger.
func SetupLogging(cfg config.LogConfig) *slog.Logger {
	l := NewLogger(os.Stdout, cfg)
	slog.SetDefault(l)
	return l
}

func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

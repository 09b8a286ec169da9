package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLogLevel converts debug, info, warn or error into a slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q: %w", level, err)
	}

	return parsed, nil
}

// NewLogHandler creates the slog.Handler for the configured format and level, writing to w.
func NewLogHandler(cfg Config, w io.Writer) slog.Handler {
	level, err := ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	options := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == FormatText {
		return slog.NewTextHandler(w, options)
	}

	return slog.NewJSONHandler(w, options)
}

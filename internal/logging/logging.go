// Package logging constructs the slog loggers used across the toolchain.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates the CLI logger. The level is named ("debug", "info",
// "warn", "error"; unknown names fall back to info) and format is "text"
// or "json". Output goes to stderr: stdout is reserved for generated
// code and spec documents.
func New(level, format string) *slog.Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter creates a logger writing to the given writer.
func NewWithWriter(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

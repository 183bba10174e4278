package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New builds the Logger selected by backend ("slog" or "zap"). For slog the
// format is "text" or "json"; zap always logs in its development console format.
func New(backend, format, level string, w io.Writer) (Logger, error) {
	if strings.ToLower(backend) == "zap" {
		return NewZapDevelopment(level)
	}

	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return NewSlogLogger(slog.New(h)), nil
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Nop returns a logger that discards everything; handy for tests.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

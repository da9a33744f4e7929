package extsort

import (
	"log/slog"
	"os"
)

// NewTextLogger returns a logger that writes human-readable records to stderr.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger returns a logger that writes JSON records to stderr.
func NewJSONLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Package logging defines a minimal structured-logging interface used across
// the project, with slog and zerolog implementations.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "note updated", "note_id", id, "history_len", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	FormatSlog    = "slog"
	FormatZerolog = "zerolog"
)

// New builds the process logger for the given environment and backend format.
// Local runs log text at debug level, dev logs JSON at debug, prod logs JSON at info.
func New(env, format string, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	if format == FormatZerolog {
		return NewZerologLogger(newZerolog(env, w))
	}

	var h slog.Handler
	switch env {
	case EnvLocal:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	case EnvDev:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return NewSlogLogger(slog.New(h))
}

// Err is a shorthand attribute for logging an error value.
func Err(err error) slog.Attr {
	return slog.String("error", err.Error())
}

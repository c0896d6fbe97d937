package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/rs/zerolog"
)

type ZerologLogger struct {
	l zerolog.Logger
}

func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

func newZerolog(env string, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if env == EnvLocal || env == EnvDev {
		level = zerolog.DebugLevel
	}
	if env == EnvLocal {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func (z *ZerologLogger) Debug(ctx context.Context, msg string, args ...any) {
	z.l.Debug().Fields(fieldsOf(withContext(ctx, args))).Msg(msg)
}

func (z *ZerologLogger) Info(ctx context.Context, msg string, args ...any) {
	z.l.Info().Fields(fieldsOf(withContext(ctx, args))).Msg(msg)
}

func (z *ZerologLogger) Warn(ctx context.Context, msg string, args ...any) {
	z.l.Warn().Fields(fieldsOf(withContext(ctx, args))).Msg(msg)
}

func (z *ZerologLogger) Error(ctx context.Context, msg string, args ...any) {
	z.l.Error().Fields(fieldsOf(withContext(ctx, args))).Msg(msg)
}

func (z *ZerologLogger) With(args ...any) Logger {
	return &ZerologLogger{l: z.l.With().Fields(fieldsOf(args)).Logger()}
}

// fieldsOf flattens slog-style arguments (key/value pairs or slog.Attr) into
// a map zerolog understands.
func fieldsOf(args []any) map[string]any {
	fields := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case slog.Attr:
			fields[v.Key] = v.Value.Any()
		case string:
			if i+1 < len(args) {
				fields[v] = args[i+1]
				i++
			} else {
				fields["!BADKEY"] = v
			}
		default:
			fields["!BADKEY"] = v
		}
	}
	return fields
}

package pgwire

import (
	"context"
	"log/slog"
)

// Logger is the structured-logging seam every Conn and Pool writes
// through. *slog.Logger satisfies it directly; a caller that wants to
// silence or redirect logging can supply any other implementation.
type Logger interface {
	Log(ctx context.Context, level slog.Level, msg string, args ...any)
}

// slogAdapter adapts a *slog.Logger to the Logger interface.
type slogAdapter struct{ l *slog.Logger }

func (a slogAdapter) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	a.l.Log(ctx, level, msg, args...)
}

// NewLogger wraps a *slog.Logger as a Logger. A nil argument wraps
// slog.Default().
func NewLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogAdapter{l: l}
}

type noopLogger struct{}

func (noopLogger) Log(context.Context, slog.Level, string, ...any) {}

var defaultLogger Logger = noopLogger{}

// loggerOrDefault returns l, or defaultLogger (a no-op) if l is nil — the
// fallback used whenever a caller leaves Config.Logger unset.
func loggerOrDefault(l Logger) Logger {
	if l == nil {
		return defaultLogger
	}
	return l
}

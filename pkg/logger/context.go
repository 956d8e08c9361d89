package logger

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// With derives a context whose logger carries the extra fields. Handlers use
// it to stamp principal and request ids onto everything logged downstream.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, loggerKey{}, From(ctx).With(fields...))
}

// From returns the context's logger, falling back to the process logger.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}

package logger

import (
	"context"
	"log/slog"
)

// LoggerFromCtx returns the default logger with any pipeline identity fields
// found on the context pre-bound, so call sites that do not pass the context
// to each log call still carry them.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	for _, field := range fields {
		if v, ok := ctx.Value(field).(string); ok {
			logger = logger.With(string(field), v)
		}
	}
	return logger
}

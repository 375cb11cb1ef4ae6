package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/blockchair-etl/flow/internal"
	"github.com/blockchair-etl/flow/shared"
)

var _ slog.Handler = Handler{}

var fields = []shared.ContextKey{shared.CoinKey, shared.DatasetKey, shared.TableKey}

// ambient attributes stamped on every record, mirroring the fields the
// warehouse-side log tables key on
var (
	sessionID   = uuid.NewString()
	hostname, _ = os.Hostname()
)

type Handler struct {
	handler slog.Handler
}

func NewHandler(handler slog.Handler) slog.Handler {
	return Handler{
		handler: handler,
	}
}

func (h Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h Handler) Handle(ctx context.Context, record slog.Record) error {
	for _, field := range fields {
		if v, ok := ctx.Value(field).(string); ok {
			record.AddAttrs(slog.String(string(field), v))
		}
	}
	record.AddAttrs(
		slog.String("session_id", sessionID),
		slog.String("host", hostname),
		slog.String("version", internal.EtlVersionShaShort()),
	)
	return h.handler.Handle(ctx, record)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{h.handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return h.handler.WithGroup(name)
}

// NewHandlerOptions maps ETL_LOG_LEVEL onto the slog level, defaulting to info.
func NewHandlerOptions() *slog.HandlerOptions {
	if level, ok := os.LookupEnv("ETL_LOG_LEVEL"); ok {
		var ll slog.Level
		switch level {
		case "DEBUG":
			ll = slog.LevelDebug
		case "WARN", "WARNING":
			ll = slog.LevelWarn
		case "ERROR":
			ll = slog.LevelError
		default:
			ll = slog.LevelInfo
		}
		return &slog.HandlerOptions{
			Level: ll,
		}
	}
	return nil
}

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockchair-etl/flow/shared"
)

func TestHandlerAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := context.WithValue(t.Context(), shared.CoinKey, "bitcoin")
	ctx = context.WithValue(ctx, shared.DatasetKey, "blocks")

	logger.InfoContext(ctx, "downloaded dump")

	out := buf.String()
	require.Contains(t, out, `"coin":"bitcoin"`)
	require.Contains(t, out, `"dataset":"blocks"`)
	require.Contains(t, out, `"session_id":`)
	require.Contains(t, out, `"host":`)
	require.Contains(t, out, `"version":`)
}

func TestHandlerWithoutContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Info("plain record")

	out := buf.String()
	require.NotContains(t, out, `"coin":`)
	require.Contains(t, out, `"session_id":`)
}

func TestLoggerFromCtxBindsFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx := context.WithValue(t.Context(), shared.TableKey, "blocks_raw")
	LoggerFromCtx(ctx).Info("deployed table")

	require.Contains(t, buf.String(), `"tableName":"blocks_raw"`)
}

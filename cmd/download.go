package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	connblockchair "github.com/blockchair-etl/flow/connectors/blockchair"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/shared"
)

// DownloadParams are the flags of the download command.
type DownloadParams struct {
	Coin          string
	Kinds         []string
	Days          int
	RetentionDays int
	SkipExisting  bool
	MirrorToS3    bool
}

// DownloadMain fetches the daily dumps of every requested dataset kind for
// the last Days days, optionally mirrors them to S3, and removes dumps older
// than the retention window when RetentionDays is set.
func DownloadMain(ctx context.Context, args *DownloadParams) error {
	ctx = context.WithValue(ctx, shared.CoinKey, args.Coin)
	client := connblockchair.NewClient(connblockchair.ClientConfig{})

	paths, err := client.DownloadRange(ctx, args.Coin, args.Kinds, args.Days, args.SkipExisting)
	if err != nil {
		return err
	}
	logger.LoggerFromCtx(ctx).Info("download finished",
		slog.Int("files", len(paths)),
		slog.Int("days", args.Days))

	if args.MirrorToS3 {
		mirror, err := connblockchair.NewS3Mirror(ctx)
		if err != nil {
			return err
		}
		for _, localPath := range paths {
			kind := kindFromDumpPath(localPath)
			if _, err := mirror.Upload(ctx, args.Coin, kind, localPath); err != nil {
				return err
			}
		}
	}

	if args.RetentionDays > 0 {
		if err := client.CleanOldFiles(ctx, args.Coin, args.Kinds, args.RetentionDays, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

// kindFromDumpPath recovers the dataset kind from the local dump layout
// <dataDir>/<coin>/<kind>/<file>.
func kindFromDumpPath(localPath string) string {
	return filepath.Base(filepath.Dir(localPath))
}

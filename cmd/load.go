package cmd

import (
	"context"
	"log/slog"

	connblockchair "github.com/blockchair-etl/flow/connectors/blockchair"
	connsnowflake "github.com/blockchair-etl/flow/connectors/snowflake"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/shared"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

// LoadParams are the flags of the load command.
type LoadParams struct {
	TableName  string
	DDLPath    string
	FilePath   string
	StagePath  string
	Stage      string
	FileFormat string
	Coin       string
	Kind       string
	ViaS3      bool
}

// LoadMain deploys the table from its DDL file when one is given, then loads
// one dump into it. A local file goes through PUT to the internal stage, or
// through the S3 mirror and an external stage with ViaS3 set. StagePath
// instead copies a file that is already staged.
func LoadMain(ctx context.Context, args *LoadParams) error {
	config, err := connsnowflake.ConfigFromEnv()
	if err != nil {
		return err
	}
	connector, err := connsnowflake.NewSnowflakeConnector(ctx, config)
	if err != nil {
		return err
	}
	defer connector.Close()

	ctx = context.WithValue(ctx, shared.TableKey, args.TableName)

	if args.DDLPath != "" {
		if _, err := connector.DeployTable(ctx, args.DDLPath); err != nil {
			return err
		}
	}

	var rows int64
	switch {
	case args.FilePath != "" && args.ViaS3:
		mirror, err := connblockchair.NewS3Mirror(ctx)
		if err != nil {
			return err
		}
		stagePath, err := mirror.Upload(ctx, args.Coin, args.Kind, args.FilePath)
		if err != nil {
			return err
		}
		rows, err = connector.LoadStaged(ctx, args.TableName, args.Stage, stagePath, args.FileFormat)
		if err != nil {
			return err
		}
	case args.FilePath != "":
		rows, err = connector.LoadFile(ctx, args.TableName, args.Stage, args.FileFormat, args.FilePath)
		if err != nil {
			return err
		}
	case args.StagePath != "":
		rows, err = connector.LoadStaged(ctx, args.TableName, args.Stage, args.StagePath, args.FileFormat)
		if err != nil {
			return err
		}
	default:
		return exceptions.NewConfigError("load needs either a local file or a stage path")
	}

	logger.LoggerFromCtx(ctx).Info("load complete",
		slog.String("table", args.TableName),
		slog.Int64("rows", rows))
	return nil
}

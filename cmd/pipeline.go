package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	connblockchair "github.com/blockchair-etl/flow/connectors/blockchair"
	connsnowflake "github.com/blockchair-etl/flow/connectors/snowflake"
	"github.com/blockchair-etl/flow/internal"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/shared"
)

// PipelineParams are the flags of the pipeline command.
type PipelineParams struct {
	Coin          string
	Kinds         []string
	ConfigPath    string
	DDLDir        string
	Stage         string
	FileFormat    string
	Days          int
	SampleRows    int
	Parallelism   int
	RetentionDays int
	SkipExisting  bool
	Deploy        bool
	MirrorToS3    bool
}

// pipelineRun carries the clients shared by the per-kind goroutines.
type pipelineRun struct {
	args      *PipelineParams
	client    *connblockchair.Client
	connector *connsnowflake.SnowflakeConnector
	mirror    *connblockchair.S3Mirror
	ddlDir    string
}

// PipelineMain runs the full dump-to-warehouse flow for every dataset kind:
// download the daily dumps, infer the schema of the newest one and write its
// DDL, then with Deploy set create the table and COPY the dump into it.
// Kinds run concurrently up to Parallelism. Already downloaded dumps are
// never refetched; SkipExisting applies the schema keep policy, so a table
// whose existing columns are all wide enough is neither rewritten nor
// replaced in the warehouse.
func PipelineMain(ctx context.Context, args *PipelineParams) error {
	ctx = context.WithValue(ctx, shared.CoinKey, args.Coin)

	run := &pipelineRun{
		args:   args,
		client: connblockchair.NewClient(connblockchair.ClientConfig{}),
		ddlDir: args.DDLDir,
	}
	if run.ddlDir == "" {
		run.ddlDir = internal.EtlDdlDir()
	}

	if args.Deploy {
		config, err := connsnowflake.ConfigFromEnv()
		if err != nil {
			return err
		}
		connector, err := connsnowflake.NewSnowflakeConnector(ctx, config)
		if err != nil {
			return err
		}
		defer connector.Close()
		run.connector = connector
	}

	if args.MirrorToS3 {
		mirror, err := connblockchair.NewS3Mirror(ctx)
		if err != nil {
			return err
		}
		run.mirror = mirror
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(args.Parallelism, 1))
	for _, kind := range args.Kinds {
		group.Go(func() error {
			return run.runKind(groupCtx, kind)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if args.RetentionDays > 0 {
		if err := run.client.CleanOldFiles(ctx, args.Coin, args.Kinds, args.RetentionDays, time.Now()); err != nil {
			return err
		}
	}

	logger.LoggerFromCtx(ctx).Info("pipeline complete",
		slog.Int("kinds", len(args.Kinds)),
		slog.Int("days", args.Days))
	return nil
}

func (p *pipelineRun) runKind(ctx context.Context, kind string) error {
	ctx = context.WithValue(ctx, shared.DatasetKey, kind)
	log := logger.LoggerFromCtx(ctx)

	paths, err := p.client.DownloadRange(ctx, p.args.Coin, []string{kind}, p.args.Days, true)
	if err != nil {
		return err
	}
	newest := paths[0]

	stagePath := ""
	if p.mirror != nil {
		for _, localPath := range paths {
			key, err := p.mirror.Upload(ctx, p.args.Coin, kind, localPath)
			if err != nil {
				return err
			}
			if localPath == newest {
				stagePath = key
			}
		}
	}

	tableName := kind + "_raw"
	ddlPath := filepath.Join(p.ddlDir, "create_"+kind+".sql")
	outcome, err := GenerateDDLMain(ctx, &GenerateDDLParams{
		InputPath:      newest,
		TableName:      tableName,
		ConfigPath:     p.args.ConfigPath,
		OutputDDLPath:  ddlPath,
		SchemaJSONPath: filepath.Join(p.ddlDir, "schema_"+kind+".json"),
		SampleRows:     p.args.SampleRows,
		SkipExisting:   p.args.SkipExisting,
	})
	if err != nil {
		return err
	}

	if p.connector == nil {
		return nil
	}

	// A kept schema still needs a deploy when the warehouse lost the table,
	// for example after provisioning with --or-replace.
	deploy := outcome == OutcomeWroteNew
	if !deploy {
		missing, err := p.connector.CheckTables(ctx, []string{tableName})
		if err != nil {
			return err
		}
		deploy = len(missing) > 0
	}
	if deploy {
		if _, err := p.connector.DeployTable(ctx, ddlPath); err != nil {
			return err
		}
	}

	var rows int64
	if stagePath != "" {
		rows, err = p.connector.LoadStaged(ctx, tableName, p.args.Stage, stagePath, p.args.FileFormat)
	} else {
		rows, err = p.connector.LoadFile(ctx, tableName, p.args.Stage, p.args.FileFormat, newest)
	}
	if err != nil {
		return err
	}

	log.Info("dataset loaded",
		slog.String("table", tableName),
		slog.String("dump", filepath.Base(newest)),
		slog.Int64("rows", rows))
	return nil
}

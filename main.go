package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	_ "go.uber.org/automaxprocs"

	"github.com/blockchair-etl/flow/cmd"
	"github.com/blockchair-etl/flow/internal"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

// exitCode maps errors to the codes wrapping cron scripts branch on:
// 1 for bad input data, 2 for bad configuration, 5 for everything else.
func exitCode(err error) int {
	var inputErr *exceptions.InputError
	var configErr *exceptions.ConfigError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &inputErr):
		return 1
	case errors.As(err, &configErr):
		return 2
	default:
		return 5
	}
}

func parseTags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	tags := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, exceptions.NewConfigError("tag %q is not key=value", pair)
		}
		tags[key] = value
	}
	return tags, nil
}

func main() {
	appCtx, appClose := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer appClose()

	// it's okay if the .env file is not present
	// we will use the default values
	_ = godotenv.Load()

	slog.SetDefault(slog.New(logger.NewHandler(slog.NewJSONHandler(os.Stdout, logger.NewHandlerOptions()))))

	coinFlag := &cli.StringFlag{
		Name:    "coin",
		Value:   "bitcoin",
		Sources: cli.EnvVars("ETL_COIN"),
	}

	kindsFlag := &cli.StringSliceFlag{
		Name:    "kind",
		Value:   []string{"blocks", "transactions", "inputs", "outputs"},
		Usage:   "dataset kinds to process",
		Sources: cli.EnvVars("ETL_KINDS"),
	}

	daysFlag := &cli.IntFlag{
		Name:  "days",
		Value: 1,
		Usage: "how many days to fetch, counted back from yesterday",
	}

	retentionFlag := &cli.IntFlag{
		Name:    "retention-days",
		Value:   0, // default: keep everything
		Usage:   "delete local dumps older than this many days",
		Sources: cli.EnvVars("ETL_RETENTION_DAYS"),
	}

	skipExistingFlag := &cli.BoolFlag{
		Name:  "skip-existing",
		Value: false,
	}

	mirrorFlag := &cli.BoolFlag{
		Name:    "mirror-to-s3",
		Value:   false,
		Usage:   "also upload dumps to the S3 mirror",
		Sources: cli.EnvVars("ETL_MIRROR_TO_S3"),
	}

	configFlag := &cli.StringFlag{
		Name:    "config",
		Value:   "", // default: built-in inference settings
		Sources: cli.EnvVars("ETL_INFERENCE_CONFIG"),
	}

	sampleRowsFlag := &cli.IntFlag{
		Name:  "sample-rows",
		Value: 0, // default: the configured sample size
		Usage: "override how many rows to sample",
	}

	stageFlag := &cli.StringFlag{
		Name:    "stage",
		Value:   "tsv_stage",
		Sources: cli.EnvVars("SNOWFLAKE_STAGE"),
	}

	fileFormatFlag := &cli.StringFlag{
		Name:    "file-format",
		Value:   "tsv_file",
		Sources: cli.EnvVars("SNOWFLAKE_FILE_FORMAT"),
	}

	ddlDirFlag := &cli.StringFlag{
		Name:    "ddl-dir",
		Value:   "", // default: ETL_DDL_DIR
		Sources: cli.EnvVars("ETL_DDL_DIR"),
	}

	app := &cli.Command{
		Name: "Blockchair Flow CLI",
		Commands: []*cli.Command{
			{
				Name:  "download",
				Usage: "fetch daily dumps from Blockchair",
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					return cmd.DownloadMain(ctx, &cmd.DownloadParams{
						Coin:          clicmd.String("coin"),
						Kinds:         clicmd.StringSlice("kind"),
						Days:          int(clicmd.Int("days")),
						RetentionDays: int(clicmd.Int("retention-days")),
						SkipExisting:  clicmd.Bool("skip-existing"),
						MirrorToS3:    clicmd.Bool("mirror-to-s3"),
					})
				},
				Flags: []cli.Flag{
					coinFlag,
					kindsFlag,
					daysFlag,
					retentionFlag,
					skipExistingFlag,
					mirrorFlag,
				},
			},
			{
				Name:      "generate-ddl",
				Usage:     "infer a dump's schema and render its CREATE TABLE",
				ArgsUsage: "<file> <table>",
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					if clicmd.Args().Len() != 2 {
						return exceptions.NewConfigError("usage: generate-ddl <file> <table>")
					}
					outcome, err := cmd.GenerateDDLMain(ctx, &cmd.GenerateDDLParams{
						InputPath:      clicmd.Args().Get(0),
						TableName:      clicmd.Args().Get(1),
						ConfigPath:     clicmd.String("config"),
						OutputDDLPath:  clicmd.String("output-ddl"),
						SchemaJSONPath: clicmd.String("output-schema-json"),
						UseColumns:     clicmd.StringSlice("usecols"),
						SampleRows:     int(clicmd.Int("sample-rows")),
						SkipExisting:   clicmd.Bool("skip-existing"),
					})
					if err != nil {
						return err
					}
					fmt.Println(outcome)
					return nil
				},
				Flags: []cli.Flag{
					configFlag,
					sampleRowsFlag,
					skipExistingFlag,
					&cli.StringFlag{
						Name:  "output-ddl",
						Value: "", // default: print to stdout
					},
					&cli.StringFlag{
						Name:  "output-schema-json",
						Value: "",
					},
					&cli.StringSliceFlag{
						Name:  "usecols",
						Usage: "only infer these header columns",
					},
				},
			},
			{
				Name:  "provision",
				Usage: "create the warehouse objects the pipeline loads into",
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					tags, err := parseTags(clicmd.StringSlice("tag"))
					if err != nil {
						return err
					}
					return cmd.ProvisionMain(ctx, &cmd.ProvisionParams{
						Warehouse:     clicmd.String("warehouse"),
						WarehouseSize: clicmd.String("warehouse-size"),
						Database:      clicmd.String("database"),
						Schema:        clicmd.String("schema"),
						FileFormat:    clicmd.String("file-format"),
						Stage:         clicmd.String("stage"),
						StageURL:      clicmd.String("stage-url"),
						Tags:          tags,
						OrReplace:     clicmd.Bool("or-replace"),
						Transient:     clicmd.Bool("transient"),
					})
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "warehouse",
						Value:   "",
						Sources: cli.EnvVars("SNOWFLAKE_WAREHOUSE"),
					},
					&cli.StringFlag{
						Name:  "warehouse-size",
						Value: "XSMALL",
					},
					&cli.StringFlag{
						Name:    "database",
						Value:   "",
						Sources: cli.EnvVars("SNOWFLAKE_DATABASE"),
					},
					&cli.StringFlag{
						Name:    "schema",
						Value:   "",
						Sources: cli.EnvVars("SNOWFLAKE_SCHEMA"),
					},
					fileFormatFlag,
					stageFlag,
					&cli.StringFlag{
						Name:    "stage-url",
						Value:   "", // default: internal stage
						Sources: cli.EnvVars("ETL_STAGE_URL"),
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "object tag as key=value, repeatable",
					},
					&cli.BoolFlag{Name: "or-replace"},
					&cli.BoolFlag{Name: "transient"},
				},
			},
			{
				Name:  "load",
				Usage: "deploy a table and COPY one dump into it",
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					return cmd.LoadMain(ctx, &cmd.LoadParams{
						TableName:  clicmd.String("table"),
						DDLPath:    clicmd.String("ddl"),
						FilePath:   clicmd.String("file"),
						StagePath:  clicmd.String("stage-path"),
						Stage:      clicmd.String("stage"),
						FileFormat: clicmd.String("file-format"),
						Coin:       clicmd.String("coin"),
						Kind:       clicmd.String("kind"),
						ViaS3:      clicmd.Bool("via-s3"),
					})
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "table",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "ddl",
						Usage: "DDL file to deploy before loading",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "local dump to load",
					},
					&cli.StringFlag{
						Name:  "stage-path",
						Usage: "already staged dump to load",
					},
					stageFlag,
					fileFormatFlag,
					coinFlag,
					&cli.StringFlag{
						Name:  "kind",
						Value: "",
					},
					&cli.BoolFlag{
						Name:  "via-s3",
						Usage: "upload to the S3 mirror and COPY from the external stage",
					},
				},
			},
			{
				Name:  "check",
				Usage: "verify warehouse connectivity and required tables",
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					return cmd.CheckMain(ctx, &cmd.CheckParams{
						Tables:   clicmd.StringSlice("table"),
						Validate: clicmd.Bool("validate"),
					})
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "table",
						Usage: "table that must exist, repeatable",
					},
					&cli.BoolFlag{
						Name:  "validate",
						Usage: "run a create-insert-drop round trip",
					},
				},
			},
			{
				Name:  "pipeline",
				Usage: "download, infer and load every dataset kind",
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					return cmd.PipelineMain(ctx, &cmd.PipelineParams{
						Coin:          clicmd.String("coin"),
						Kinds:         clicmd.StringSlice("kind"),
						ConfigPath:    clicmd.String("config"),
						DDLDir:        clicmd.String("ddl-dir"),
						Stage:         clicmd.String("stage"),
						FileFormat:    clicmd.String("file-format"),
						Days:          int(clicmd.Int("days")),
						SampleRows:    int(clicmd.Int("sample-rows")),
						Parallelism:   int(clicmd.Int("parallelism")),
						RetentionDays: int(clicmd.Int("retention-days")),
						SkipExisting:  clicmd.Bool("skip-existing"),
						Deploy:        clicmd.Bool("deploy"),
						MirrorToS3:    clicmd.Bool("mirror-to-s3"),
					})
				},
				Flags: []cli.Flag{
					coinFlag,
					kindsFlag,
					daysFlag,
					configFlag,
					sampleRowsFlag,
					ddlDirFlag,
					stageFlag,
					fileFormatFlag,
					retentionFlag,
					skipExistingFlag,
					mirrorFlag,
					&cli.IntFlag{
						Name:  "parallelism",
						Value: 4,
						Usage: "dataset kinds processed concurrently",
					},
					&cli.BoolFlag{
						Name:  "deploy",
						Usage: "create tables and COPY dumps into the warehouse",
					},
				},
			},
			{
				Name: "version",
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					fmt.Println(internal.EtlVersionShaShort())
					return nil
				},
			},
		},
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			log.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n", buf[:stacklen])
		}
	}()

	if err := app.Run(appCtx, os.Args); err != nil {
		log.Printf("error running app: %+v", err)
		os.Exit(exitCode(err))
	}
}

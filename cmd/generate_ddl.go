package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blockchair-etl/flow/inference"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/model"
	"github.com/blockchair-etl/flow/shared"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

// GenerateDDLParams are the flags of the generate-ddl command.
type GenerateDDLParams struct {
	InputPath      string
	TableName      string
	ConfigPath     string
	OutputDDLPath  string
	SchemaJSONPath string
	UseColumns     []string
	SampleRows     int
	SkipExisting   bool
}

// GenerateOutcome is printed on stdout so wrapping scripts can branch on it
// without parsing logs.
type GenerateOutcome string

const (
	OutcomeWroteNew     GenerateOutcome = "wrote-new"
	OutcomeKeptExisting GenerateOutcome = "kept-existing"
	OutcomeFailed       GenerateOutcome = "failed"
)

// GenerateDDLMain samples one dump, infers the narrowest safe column types
// and renders the CREATE TABLE statement. With SkipExisting set it first
// loads the previously written schema and keeps it untouched when every
// existing column is at least as wide as the freshly inferred one, so
// re-running over new dumps of the same dataset never narrows a table.
func GenerateDDLMain(ctx context.Context, args *GenerateDDLParams) (GenerateOutcome, error) {
	cfg, err := inference.LoadConfig(args.ConfigPath)
	if err != nil {
		return OutcomeFailed, err
	}
	if args.SampleRows > 0 {
		cfg.SampleRows = args.SampleRows
	}
	if len(args.UseColumns) > 0 {
		cfg.UseColumns = args.UseColumns
	}

	ctx = context.WithValue(ctx, shared.TableKey, args.TableName)
	schema, _, err := inference.InferSchema(ctx, cfg, args.InputPath, args.TableName)
	if err != nil {
		return OutcomeFailed, err
	}

	if args.SkipExisting {
		existing, found, err := readExistingSchema(args)
		if err != nil {
			return OutcomeFailed, err
		}
		if found && model.CompareSchemas(existing, schema) == model.DecisionKeepExisting {
			logger.LoggerFromCtx(ctx).Info("existing schema is wider or equal, keeping it",
				slog.String("table", args.TableName))
			return OutcomeKeptExisting, nil
		}
	}

	ddl, err := model.RenderDDL(schema)
	if err != nil {
		return OutcomeFailed, err
	}

	if args.OutputDDLPath != "" {
		if err := writeFileAtomic(args.OutputDDLPath, []byte(ddl)); err != nil {
			return OutcomeFailed, err
		}
		logger.LoggerFromCtx(ctx).Info("DDL saved", slog.String("path", args.OutputDDLPath))
	} else {
		fmt.Print(ddl)
	}

	if args.SchemaJSONPath != "" {
		data, err := model.MarshalSchemaJSON(schema)
		if err != nil {
			return OutcomeFailed, exceptions.NewOutputError(err)
		}
		if err := writeFileAtomic(args.SchemaJSONPath, data); err != nil {
			return OutcomeFailed, err
		}
		logger.LoggerFromCtx(ctx).Info("schema JSON saved", slog.String("path", args.SchemaJSONPath))
	}

	return OutcomeWroteNew, nil
}

// readExistingSchema loads the schema written by a previous run, preferring
// the JSON sidecar over re-parsing the DDL. A missing file is not an error,
// it just means there is nothing to keep.
func readExistingSchema(args *GenerateDDLParams) (model.TableSchema, bool, error) {
	if args.SchemaJSONPath != "" {
		data, err := os.ReadFile(args.SchemaJSONPath)
		if err == nil {
			schema, err := model.ParseSchemaJSON(data, args.TableName)
			if err != nil {
				return model.TableSchema{}, false,
					exceptions.NewInputError(fmt.Errorf("parsing %s: %w", args.SchemaJSONPath, err))
			}
			return schema, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return model.TableSchema{}, false, exceptions.NewInputError(err)
		}
	}

	if args.OutputDDLPath != "" {
		data, err := os.ReadFile(args.OutputDDLPath)
		if err == nil {
			schema, err := model.ParseDDL(string(data))
			if err != nil {
				return model.TableSchema{}, false,
					exceptions.NewInputError(fmt.Errorf("parsing %s: %w", args.OutputDDLPath, err))
			}
			return schema, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return model.TableSchema{}, false, exceptions.NewInputError(err)
		}
	}

	return model.TableSchema{}, false, nil
}

// writeFileAtomic writes through a temp file and a rename so a crash mid
// write never leaves a truncated DDL behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return exceptions.NewOutputError(fmt.Errorf("creating %s: %w", dir, err))
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return exceptions.NewOutputError(err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return exceptions.NewOutputError(err)
	}
	return nil
}

package connsnowflake

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blockchair-etl/flow/model"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

func buildPutSQL(localPath string, stageRef string) string {
	// dumps are gzipped already, recompressing them on upload wastes time
	return fmt.Sprintf("PUT file://%s @%s AUTO_COMPRESS = FALSE", localPath, stageRef)
}

func buildCopySQL(qualifiedTable string, stageRef string, stagePath string, fileFormatRef string) string {
	copyOpts := []string{
		fmt.Sprintf("FILE_FORMAT = (FORMAT_NAME = %s)", fileFormatRef),
		"ON_ERROR = ABORT_STATEMENT",
		"PURGE = TRUE",
	}
	return fmt.Sprintf("COPY INTO %s FROM @%s/%s %s",
		qualifiedTable, stageRef, stagePath, strings.Join(copyOpts, ", "))
}

func buildCopyExternalSQL(qualifiedTable string, stageRef string, stagePath string, fileFormatRef string) string {
	return fmt.Sprintf("COPY INTO %s FROM @%s/%s FILE_FORMAT = (FORMAT_NAME = %s)",
		qualifiedTable, stageRef, stagePath, fileFormatRef)
}

// DeployTable reads a rendered CREATE TABLE file and executes it with the
// table name qualified into the configured database and schema. Returns the
// qualified name.
func (c *SnowflakeConnector) DeployTable(ctx context.Context, ddlPath string) (string, error) {
	content, err := os.ReadFile(ddlPath)
	if err != nil {
		return "", exceptions.NewInputError(fmt.Errorf("reading DDL %s: %w", ddlPath, err))
	}
	schema, err := model.ParseDDL(string(content))
	if err != nil {
		return "", exceptions.NewInputError(fmt.Errorf("parsing DDL %s: %w", ddlPath, err))
	}

	qualifiedTable := c.QualifiedTableName(schema.TableName)
	statement := fmt.Sprintf("CREATE OR REPLACE TABLE %s (\n    %s\n)",
		qualifiedTable, strings.Join(model.ColumnDefinitions(schema), ",\n    "))
	if err := c.execute(ctx, statement); err != nil {
		return "", fmt.Errorf("failed to deploy table %s: %w", qualifiedTable, err)
	}

	c.logger.Info("table deployed",
		slog.String("table", qualifiedTable),
		slog.Int("columns", len(schema.Columns)))
	return qualifiedTable, nil
}

// LoadFile PUTs a local dump onto an internal stage and COPYs it into the
// table, returning the table row count afterwards.
func (c *SnowflakeConnector) LoadFile(ctx context.Context, tableName string, stageName string, fileFormatName string, localPath string) (int64, error) {
	absPath, err := filepath.Abs(localPath)
	if err != nil {
		return 0, exceptions.NewInputError(fmt.Errorf("resolving %s: %w", localPath, err))
	}
	if _, err := os.Stat(absPath); err != nil {
		return 0, exceptions.NewInputError(fmt.Errorf("stat %s: %w", absPath, err))
	}

	stageRef := c.qualifiedSchemaObject(stageName)
	if err := c.execute(ctx, buildPutSQL(absPath, stageRef)); err != nil {
		return 0, fmt.Errorf("failed to put file to stage %s: %w", stageRef, err)
	}

	qualifiedTable := c.QualifiedTableName(tableName)
	copyCmd := buildCopySQL(qualifiedTable, stageRef, filepath.Base(absPath), c.qualifiedSchemaObject(fileFormatName))
	if err := c.execute(ctx, copyCmd); err != nil {
		return 0, fmt.Errorf("failed to run COPY INTO command: %w", err)
	}

	rows, err := c.TableRowCount(ctx, qualifiedTable)
	if err != nil {
		return 0, err
	}
	c.logger.Info("file loaded",
		slog.String("table", qualifiedTable),
		slog.String("file", filepath.Base(absPath)),
		slog.Int64("tableRows", rows))
	return rows, nil
}

// LoadStaged COPYs a file already present on the stage, typically an
// external S3 stage fed by the mirror, into the table.
func (c *SnowflakeConnector) LoadStaged(ctx context.Context, tableName string, stageName string, stagePath string, fileFormatName string) (int64, error) {
	qualifiedTable := c.QualifiedTableName(tableName)
	copyCmd := buildCopyExternalSQL(qualifiedTable, c.qualifiedSchemaObject(stageName), stagePath, c.qualifiedSchemaObject(fileFormatName))
	if err := c.execute(ctx, copyCmd); err != nil {
		return 0, fmt.Errorf("failed to run COPY INTO command: %w", err)
	}

	rows, err := c.TableRowCount(ctx, qualifiedTable)
	if err != nil {
		return 0, err
	}
	c.logger.Info("staged file loaded",
		slog.String("table", qualifiedTable),
		slog.String("stagePath", stagePath),
		slog.Int64("tableRows", rows))
	return rows, nil
}

package connsnowflake

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// WarehouseOptions configures CreateWarehouse. Type and Size take the values
// Snowflake accepts (STANDARD/SNOWPARK-OPTIMIZED, XSMALL..XXLARGE).
type WarehouseOptions struct {
	Name    string
	Type    string
	Size    string
	Comment string
}

// DatabaseOptions configures CreateDatabase.
type DatabaseOptions struct {
	Name      string
	OrReplace bool
	Transient bool
	Comment   string
	Tags      map[string]string
}

// SchemaOptions configures CreateSchema inside an existing database.
type SchemaOptions struct {
	Database  string
	Name      string
	OrReplace bool
	Transient bool
	Comment   string
	Tags      map[string]string
}

// FileFormatOptions configures CreateFileFormat. An empty EnclosedBy renders
// FIELD_OPTIONALLY_ENCLOSED_BY = NONE.
type FileFormatOptions struct {
	Database   string
	Schema     string
	Name       string
	Type       string
	Delimiter  string
	EnclosedBy string
	SkipHeader int
	Comment    string
}

// StageOptions configures CreateStage. A non-empty URL makes the stage
// external, with optional static AWS credentials.
type StageOptions struct {
	Database     string
	Schema       string
	Name         string
	FileFormat   string
	URL          string
	AwsKeyID     string
	AwsSecretKey string
	Comment      string
}

func BuildCreateWarehouseSQL(opts WarehouseOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE OR REPLACE WAREHOUSE %s WAREHOUSE_TYPE = '%s' WAREHOUSE_SIZE = '%s'",
		opts.Name, opts.Type, opts.Size)
	if opts.Comment != "" {
		fmt.Fprintf(&sb, " COMMENT = '%s'", opts.Comment)
	}
	return sb.String()
}

func BuildCreateDatabaseSQL(opts DatabaseOptions) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if opts.OrReplace {
		sb.WriteString("OR REPLACE ")
	}
	if opts.Transient {
		sb.WriteString("TRANSIENT ")
	}
	sb.WriteString("DATABASE ")
	sb.WriteString(opts.Name)
	if opts.Comment != "" {
		fmt.Fprintf(&sb, " COMMENT = '%s'", opts.Comment)
	}
	if tags := buildTagsClause(opts.Tags); tags != "" {
		sb.WriteString(" ")
		sb.WriteString(tags)
	}
	return sb.String()
}

func BuildCreateSchemaSQL(opts SchemaOptions) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if opts.OrReplace {
		sb.WriteString("OR REPLACE ")
	}
	if opts.Transient {
		sb.WriteString("TRANSIENT ")
	}
	fmt.Fprintf(&sb, "SCHEMA %s.%s", opts.Database, opts.Name)
	if opts.Comment != "" {
		fmt.Fprintf(&sb, " COMMENT = '%s'", opts.Comment)
	}
	if tags := buildTagsClause(opts.Tags); tags != "" {
		sb.WriteString(" ")
		sb.WriteString(tags)
	}
	return sb.String()
}

func BuildCreateFileFormatSQL(opts FileFormatOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE OR REPLACE FILE FORMAT %s.%s.%s TYPE = '%s' FIELD_DELIMITER = '%s'",
		opts.Database, opts.Schema, opts.Name, opts.Type, opts.Delimiter)
	if opts.EnclosedBy != "" {
		fmt.Fprintf(&sb, " FIELD_OPTIONALLY_ENCLOSED_BY = '%s'", opts.EnclosedBy)
	} else {
		sb.WriteString(" FIELD_OPTIONALLY_ENCLOSED_BY = NONE")
	}
	fmt.Fprintf(&sb, " SKIP_HEADER = %d", opts.SkipHeader)
	if opts.Comment != "" {
		fmt.Fprintf(&sb, " COMMENT = '%s'", opts.Comment)
	}
	return sb.String()
}

func BuildCreateStageSQL(opts StageOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE OR REPLACE STAGE %s.%s.%s", opts.Database, opts.Schema, opts.Name)
	if opts.URL != "" {
		fmt.Fprintf(&sb, " URL = '%s'", opts.URL)
		if opts.AwsKeyID != "" {
			fmt.Fprintf(&sb, " CREDENTIALS = (AWS_KEY_ID = '%s' AWS_SECRET_KEY = '%s')",
				opts.AwsKeyID, opts.AwsSecretKey)
		}
	}
	fmt.Fprintf(&sb, " FILE_FORMAT = %s.%s.%s", opts.Database, opts.Schema, opts.FileFormat)
	if opts.Comment != "" {
		fmt.Fprintf(&sb, " COMMENT = '%s'", opts.Comment)
	}
	return sb.String()
}

// buildTagsClause renders WITH TAG (k = 'v', ...) with sorted keys so the
// statement is stable across runs.
func buildTagsClause(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s = '%s'", key, tags[key]))
	}
	return "WITH TAG (" + strings.Join(pairs, ", ") + ")"
}

func (c *SnowflakeConnector) CreateWarehouse(ctx context.Context, opts WarehouseOptions) error {
	if err := c.execute(ctx, BuildCreateWarehouseSQL(opts)); err != nil {
		return fmt.Errorf("failed to create warehouse %s: %w", opts.Name, err)
	}
	c.logger.Info("warehouse created", slog.String("warehouse", opts.Name))
	return nil
}

func (c *SnowflakeConnector) CreateDatabase(ctx context.Context, opts DatabaseOptions) error {
	if err := c.execute(ctx, BuildCreateDatabaseSQL(opts)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", opts.Name, err)
	}
	c.logger.Info("database created", slog.String("database", opts.Name))
	return nil
}

func (c *SnowflakeConnector) CreateSchema(ctx context.Context, opts SchemaOptions) error {
	if err := c.execute(ctx, BuildCreateSchemaSQL(opts)); err != nil {
		return fmt.Errorf("failed to create schema %s.%s: %w", opts.Database, opts.Name, err)
	}
	c.logger.Info("schema created", slog.String("schema", opts.Database+"."+opts.Name))
	return nil
}

func (c *SnowflakeConnector) CreateFileFormat(ctx context.Context, opts FileFormatOptions) error {
	if err := c.execute(ctx, BuildCreateFileFormatSQL(opts)); err != nil {
		return fmt.Errorf("failed to create file format %s: %w", opts.Name, err)
	}
	c.logger.Info("file format created", slog.String("fileFormat", opts.Name))
	return nil
}

func (c *SnowflakeConnector) CreateStage(ctx context.Context, opts StageOptions) error {
	if err := c.execute(ctx, BuildCreateStageSQL(opts)); err != nil {
		return fmt.Errorf("failed to create stage %s: %w", opts.Name, err)
	}
	c.logger.Info("stage created", slog.String("stage", opts.Name))
	return nil
}

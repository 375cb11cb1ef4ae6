// Package connsnowflake manages the warehouse side of the pipeline:
// provisioning, table deployment and dump loading over a gosnowflake
// connection.
package connsnowflake

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/smithy-go/ptr"
	"github.com/snowflakedb/gosnowflake"

	"github.com/blockchair-etl/flow/internal"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

const (
	checkIfTableExistsSQL = `SELECT TO_BOOLEAN(COUNT(1)) FROM INFORMATION_SCHEMA.TABLES
	 WHERE TABLE_SCHEMA=? and TABLE_NAME=?`
	checkIfSchemaExistsSQL = `SELECT TO_BOOLEAN(COUNT(1)) FROM INFORMATION_SCHEMA.SCHEMATA
	 WHERE SCHEMA_NAME=?`
	createDummyTableSQL  = "CREATE TABLE IF NOT EXISTS %s.%s(dummy VARCHAR)"
	dropTableIfExistsSQL = "DROP TABLE IF EXISTS %s.%s"
	countTableRowsSQL    = "SELECT COUNT(*) FROM %s"
)

// Config carries everything needed to open a warehouse connection.
type Config struct {
	Account      string
	User         string
	Password     string
	Role         string
	Warehouse    string
	Database     string
	Schema       string
	QueryTimeout time.Duration
}

// ConfigFromEnv assembles a Config from the SNOWFLAKE_* environment
// variables, failing when a required one is missing.
func ConfigFromEnv() (Config, error) {
	config := Config{
		Account:      internal.SnowflakeAccount(),
		User:         internal.SnowflakeUser(),
		Password:     internal.SnowflakePassword(),
		Role:         internal.SnowflakeRole(),
		Warehouse:    internal.SnowflakeWarehouse(),
		Database:     internal.SnowflakeDatabase(),
		Schema:       internal.SnowflakeSchema(),
		QueryTimeout: internal.SnowflakeQueryTimeout(),
	}
	for name, value := range map[string]string{
		"SNOWFLAKE_ACCOUNT":  config.Account,
		"SNOWFLAKE_USER":     config.User,
		"SNOWFLAKE_PASSWORD": config.Password,
	} {
		if value == "" {
			return Config{}, exceptions.NewConfigError("%s must be set", name)
		}
	}
	return config, nil
}

type SnowflakeConnector struct {
	database *sql.DB
	logger   *slog.Logger
	config   Config
}

func NewSnowflakeConnector(ctx context.Context, config Config) (*SnowflakeConnector, error) {
	additionalParams := make(map[string]*string)
	additionalParams["CLIENT_SESSION_KEEP_ALIVE"] = ptr.String("true")

	snowflakeConfig := gosnowflake.Config{
		Account:          config.Account,
		User:             config.User,
		Password:         config.Password,
		Database:         config.Database,
		Schema:           config.Schema,
		Warehouse:        config.Warehouse,
		Role:             config.Role,
		RequestTimeout:   config.QueryTimeout,
		DisableTelemetry: true,
		Params:           additionalParams,
	}

	snowflakeConfigDSN, err := gosnowflake.DSN(&snowflakeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get DSN from Snowflake config: %w", err)
	}

	database, err := sql.Open("snowflake", snowflakeConfigDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to Snowflake: %w", err)
	}

	// checking if connection was actually established, since sql.Open doesn't guarantee that
	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to open connection to Snowflake: %w", err)
	}

	return &SnowflakeConnector{
		database: database,
		logger:   logger.LoggerFromCtx(ctx),
		config:   config,
	}, nil
}

func (c *SnowflakeConnector) Close() error {
	if c != nil {
		if err := c.database.Close(); err != nil {
			return fmt.Errorf("error while closing connection to Snowflake: %w", err)
		}
	}
	return nil
}

func (c *SnowflakeConnector) ConnectionActive(ctx context.Context) error {
	// This also checks if database exists
	return c.database.PingContext(ctx)
}

// ValidateCheck creates, fills and drops a throwaway table inside one
// transaction to prove the configured role can actually write.
func (c *SnowflakeConnector) ValidateCheck(ctx context.Context) error {
	schemaName := c.config.Schema
	var schemaExists sql.NullBool
	if err := c.database.QueryRowContext(ctx, checkIfSchemaExistsSQL, schemaName).Scan(&schemaExists); err != nil {
		return fmt.Errorf("error while checking if schema exists: %w", err)
	}
	if !schemaExists.Valid || !schemaExists.Bool {
		return fmt.Errorf("schema %s does not exist", schemaName)
	}

	dummyTable := "BLOCKCHAIR_DUMMY_TABLE_" + randomSuffix(2)

	tx, err := c.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for table check: %w", err)
	}
	// in case we return after error, ensure transaction is rolled back
	defer func() {
		deferErr := tx.Rollback()
		if deferErr != nil && !errors.Is(deferErr, sql.ErrTxDone) {
			c.logger.Error("error while rolling back transaction for table check", "error", deferErr)
		}
	}()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(createDummyTableSQL, schemaName, dummyTable)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s.%s VALUES ('dummy')", schemaName, dummyTable)); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(dropTableIfExistsSQL, schemaName, dummyTable)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction for table check: %w", err)
	}

	return nil
}

// randomSuffix returns 2n hex characters for unique throwaway identifiers.
func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "temp"
	}
	return hex.EncodeToString(buf)
}

func (c *SnowflakeConnector) checkIfTableExists(ctx context.Context, schemaName string, tableName string) (bool, error) {
	var result sql.NullBool
	err := c.database.QueryRowContext(ctx, checkIfTableExistsSQL, schemaName, tableName).Scan(&result)
	if err != nil {
		return false, fmt.Errorf("error while reading result row: %w", err)
	}
	return result.Valid && result.Bool, nil
}

// CheckTables verifies every listed table exists in the configured schema
// and returns the missing ones.
func (c *SnowflakeConnector) CheckTables(ctx context.Context, tableNames []string) ([]string, error) {
	var missing []string
	for _, tableName := range tableNames {
		exists, err := c.checkIfTableExists(ctx, c.config.Schema, SnowflakeQuotelessIdentifierNormalize(tableName))
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", tableName, err)
		}
		if !exists {
			missing = append(missing, tableName)
		}
	}
	return missing, nil
}

// TableRowCount reports the current row count of a qualified table.
func (c *SnowflakeConnector) TableRowCount(ctx context.Context, qualifiedTable string) (int64, error) {
	var count int64
	err := c.database.QueryRowContext(ctx, fmt.Sprintf(countTableRowsSQL, qualifiedTable)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", qualifiedTable, err)
	}
	return count, nil
}

func (c *SnowflakeConnector) execute(ctx context.Context, statement string) error {
	c.logger.Info("executing statement", slog.String("statement", statement))
	_, err := c.database.ExecContext(ctx, statement)
	return err
}

// QualifiedTableName prefixes table with the configured database and schema.
func (c *SnowflakeConnector) QualifiedTableName(table string) string {
	return fmt.Sprintf("%s.%s.%s", c.config.Database, c.config.Schema, SnowflakeQuotelessIdentifierNormalize(table))
}

func (c *SnowflakeConnector) qualifiedSchemaObject(name string) string {
	return fmt.Sprintf("%s.%s.%s", c.config.Database, c.config.Schema, name)
}

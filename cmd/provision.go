package cmd

import (
	"context"

	connsnowflake "github.com/blockchair-etl/flow/connectors/snowflake"
	"github.com/blockchair-etl/flow/internal"
	"github.com/blockchair-etl/flow/logger"
)

// ProvisionParams are the flags of the provision command. Empty names skip
// the corresponding object so a run can create just the stage or just the
// warehouse.
type ProvisionParams struct {
	Warehouse     string
	WarehouseSize string
	Database      string
	Schema        string
	FileFormat    string
	Stage         string
	StageURL      string
	Tags          map[string]string
	OrReplace     bool
	Transient     bool
}

// ProvisionMain creates the warehouse objects the pipeline loads into. The
// objects are created in dependency order, warehouse first and stage last,
// so a single run can bootstrap an empty account.
func ProvisionMain(ctx context.Context, args *ProvisionParams) error {
	config, err := connsnowflake.ConfigFromEnv()
	if err != nil {
		return err
	}
	connector, err := connsnowflake.NewSnowflakeConnector(ctx, config)
	if err != nil {
		return err
	}
	defer connector.Close()

	if args.Warehouse != "" {
		err := connector.CreateWarehouse(ctx, connsnowflake.WarehouseOptions{
			Name:    args.Warehouse,
			Type:    "STANDARD",
			Size:    args.WarehouseSize,
			Comment: "Warehouse for Bitcoin data processing",
		})
		if err != nil {
			return err
		}
	}

	if args.Database != "" {
		err := connector.CreateDatabase(ctx, connsnowflake.DatabaseOptions{
			Name:      args.Database,
			OrReplace: args.OrReplace,
			Transient: args.Transient,
			Comment:   "Database for Crypto",
			Tags:      args.Tags,
		})
		if err != nil {
			return err
		}
	}

	if args.Schema != "" {
		err := connector.CreateSchema(ctx, connsnowflake.SchemaOptions{
			Database:  args.Database,
			Name:      args.Schema,
			OrReplace: args.OrReplace,
			Transient: args.Transient,
			Comment:   "Schema for Bitcoin data processing",
			Tags:      args.Tags,
		})
		if err != nil {
			return err
		}
	}

	if args.FileFormat != "" {
		err := connector.CreateFileFormat(ctx, connsnowflake.FileFormatOptions{
			Database:   args.Database,
			Schema:     args.Schema,
			Name:       args.FileFormat,
			Type:       "CSV",
			Delimiter:  "\\t",
			EnclosedBy: "",
			SkipHeader: 1,
			Comment:    "File format for TSV files used in blockchain ETL processes",
		})
		if err != nil {
			return err
		}
	}

	if args.Stage != "" {
		err := connector.CreateStage(ctx, connsnowflake.StageOptions{
			Database:     args.Database,
			Schema:       args.Schema,
			Name:         args.Stage,
			FileFormat:   args.FileFormat,
			URL:          args.StageURL,
			AwsKeyID:     internal.AwsAccessKeyID(),
			AwsSecretKey: internal.AwsSecretAccessKey(),
			Comment:      "Stage for TSV files used in blockchain ETL processes",
		})
		if err != nil {
			return err
		}
	}

	logger.LoggerFromCtx(ctx).Info("provisioning complete")
	return nil
}

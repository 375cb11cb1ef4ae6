package cmd

import (
	"context"
	"fmt"
	"strings"

	connsnowflake "github.com/blockchair-etl/flow/connectors/snowflake"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

// CheckParams are the flags of the check command.
type CheckParams struct {
	Tables   []string
	Validate bool
}

// CheckMain verifies the warehouse is reachable with the configured
// credentials. With Validate set it also runs a create-insert-drop round
// trip against a throwaway table, and with Tables set it confirms every
// named table exists.
func CheckMain(ctx context.Context, args *CheckParams) error {
	config, err := connsnowflake.ConfigFromEnv()
	if err != nil {
		return err
	}
	connector, err := connsnowflake.NewSnowflakeConnector(ctx, config)
	if err != nil {
		return err
	}
	defer connector.Close()

	if err := connector.ConnectionActive(ctx); err != nil {
		return err
	}

	if args.Validate {
		if err := connector.ValidateCheck(ctx); err != nil {
			return err
		}
	}

	if len(args.Tables) > 0 {
		missing, err := connector.CheckTables(ctx, args.Tables)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return exceptions.NewInputError(fmt.Errorf("missing tables: %s", strings.Join(missing, ", ")))
		}
	}

	logger.LoggerFromCtx(ctx).Info("check passed")
	return nil
}

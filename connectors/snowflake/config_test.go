package connsnowflake

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockchair-etl/flow/shared/exceptions"
)

func unsetEnv(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_ACCOUNT", "myorg-myaccount")
	t.Setenv("SNOWFLAKE_USER", "loader")
	t.Setenv("SNOWFLAKE_PASSWORD", "hunter2")
	t.Setenv("SNOWFLAKE_WAREHOUSE", "LOAD_WH")
	t.Setenv("SNOWFLAKE_DATABASE", "CRYPTO")
	unsetEnv(t, "SNOWFLAKE_ROLE", "SNOWFLAKE_SCHEMA", "SNOWFLAKE_QUERY_TIMEOUT")

	config, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "myorg-myaccount", config.Account)
	require.Equal(t, "loader", config.User)
	require.Equal(t, "hunter2", config.Password)
	require.Equal(t, "LOAD_WH", config.Warehouse)
	require.Equal(t, "CRYPTO", config.Database)
	require.Equal(t, "ACCOUNTADMIN", config.Role)
	require.Equal(t, "PUBLIC", config.Schema)
	require.Equal(t, 300*time.Second, config.QueryTimeout)
}

func TestConfigFromEnvMissingCredential(t *testing.T) {
	t.Setenv("SNOWFLAKE_ACCOUNT", "myorg-myaccount")
	t.Setenv("SNOWFLAKE_USER", "loader")
	unsetEnv(t, "SNOWFLAKE_PASSWORD")

	_, err := ConfigFromEnv()
	var configErr *exceptions.ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, err.Error(), "SNOWFLAKE_PASSWORD must be set")
}

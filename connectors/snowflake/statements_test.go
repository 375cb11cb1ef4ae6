package connsnowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCreateWarehouseSQL(t *testing.T) {
	sql := BuildCreateWarehouseSQL(WarehouseOptions{
		Name:    "COMPUTE_WH",
		Type:    "STANDARD",
		Size:    "XSMALL",
		Comment: "Warehouse for Bitcoin data processing",
	})
	require.Equal(t,
		"CREATE OR REPLACE WAREHOUSE COMPUTE_WH WAREHOUSE_TYPE = 'STANDARD' WAREHOUSE_SIZE = 'XSMALL'"+
			" COMMENT = 'Warehouse for Bitcoin data processing'", sql)
}

func TestBuildCreateDatabaseSQL(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		sql := BuildCreateDatabaseSQL(DatabaseOptions{Name: "CRYPTO"})
		require.Equal(t, "CREATE DATABASE CRYPTO", sql)
	})

	t.Run("all options with sorted tags", func(t *testing.T) {
		sql := BuildCreateDatabaseSQL(DatabaseOptions{
			Name:      "CRYPTO",
			OrReplace: true,
			Transient: true,
			Comment:   "Database for Crypto",
			Tags:      map[string]string{"project": "blockchain", "env": "prod"},
		})
		require.Equal(t,
			"CREATE OR REPLACE TRANSIENT DATABASE CRYPTO COMMENT = 'Database for Crypto'"+
				" WITH TAG (env = 'prod', project = 'blockchain')", sql)
	})
}

func TestBuildCreateSchemaSQL(t *testing.T) {
	sql := BuildCreateSchemaSQL(SchemaOptions{
		Database:  "CRYPTO",
		Name:      "BITCOIN",
		OrReplace: true,
		Comment:   "Schema for Bitcoin data processing",
	})
	require.Equal(t,
		"CREATE OR REPLACE SCHEMA CRYPTO.BITCOIN COMMENT = 'Schema for Bitcoin data processing'", sql)
}

func TestBuildCreateFileFormatSQL(t *testing.T) {
	t.Run("without enclosure", func(t *testing.T) {
		sql := BuildCreateFileFormatSQL(FileFormatOptions{
			Database:   "CRYPTO",
			Schema:     "BITCOIN",
			Name:       "tsv_file",
			Type:       "CSV",
			Delimiter:  `\t`,
			SkipHeader: 1,
		})
		require.Equal(t,
			`CREATE OR REPLACE FILE FORMAT CRYPTO.BITCOIN.tsv_file TYPE = 'CSV' FIELD_DELIMITER = '\t'`+
				" FIELD_OPTIONALLY_ENCLOSED_BY = NONE SKIP_HEADER = 1", sql)
	})

	t.Run("with enclosure and comment", func(t *testing.T) {
		sql := BuildCreateFileFormatSQL(FileFormatOptions{
			Database:   "CRYPTO",
			Schema:     "BITCOIN",
			Name:       "tsv_file",
			Type:       "CSV",
			Delimiter:  `\t`,
			EnclosedBy: `"`,
			SkipHeader: 1,
			Comment:    "File format for TSV files",
		})
		require.Equal(t,
			`CREATE OR REPLACE FILE FORMAT CRYPTO.BITCOIN.tsv_file TYPE = 'CSV' FIELD_DELIMITER = '\t'`+
				` FIELD_OPTIONALLY_ENCLOSED_BY = '"' SKIP_HEADER = 1 COMMENT = 'File format for TSV files'`, sql)
	})
}

func TestBuildCreateStageSQL(t *testing.T) {
	t.Run("internal", func(t *testing.T) {
		sql := BuildCreateStageSQL(StageOptions{
			Database:   "CRYPTO",
			Schema:     "BITCOIN",
			Name:       "dump_stage",
			FileFormat: "tsv_file",
		})
		require.Equal(t,
			"CREATE OR REPLACE STAGE CRYPTO.BITCOIN.dump_stage FILE_FORMAT = CRYPTO.BITCOIN.tsv_file", sql)
	})

	t.Run("external with credentials", func(t *testing.T) {
		sql := BuildCreateStageSQL(StageOptions{
			Database:     "CRYPTO",
			Schema:       "BITCOIN",
			Name:         "dump_stage",
			FileFormat:   "tsv_file",
			URL:          "s3://dumps/blockchair",
			AwsKeyID:     "AKIA123",
			AwsSecretKey: "secret",
		})
		require.Equal(t,
			"CREATE OR REPLACE STAGE CRYPTO.BITCOIN.dump_stage URL = 's3://dumps/blockchair'"+
				" CREDENTIALS = (AWS_KEY_ID = 'AKIA123' AWS_SECRET_KEY = 'secret')"+
				" FILE_FORMAT = CRYPTO.BITCOIN.tsv_file", sql)
	})
}

func TestBuildPutAndCopySQL(t *testing.T) {
	put := buildPutSQL("/data/bitcoin/blocks/blockchair_bitcoin_blocks_20240501.tsv.gz", "CRYPTO.BITCOIN.dump_stage")
	require.Equal(t,
		"PUT file:///data/bitcoin/blocks/blockchair_bitcoin_blocks_20240501.tsv.gz"+
			" @CRYPTO.BITCOIN.dump_stage AUTO_COMPRESS = FALSE", put)

	copyCmd := buildCopySQL("CRYPTO.BITCOIN.BLOCKS_RAW", "CRYPTO.BITCOIN.dump_stage",
		"blockchair_bitcoin_blocks_20240501.tsv.gz", "CRYPTO.BITCOIN.tsv_file")
	require.Equal(t,
		"COPY INTO CRYPTO.BITCOIN.BLOCKS_RAW FROM @CRYPTO.BITCOIN.dump_stage/blockchair_bitcoin_blocks_20240501.tsv.gz"+
			" FILE_FORMAT = (FORMAT_NAME = CRYPTO.BITCOIN.tsv_file), ON_ERROR = ABORT_STATEMENT, PURGE = TRUE", copyCmd)

	external := buildCopyExternalSQL("CRYPTO.BITCOIN.BLOCKS_RAW", "CRYPTO.BITCOIN.dump_stage",
		"bitcoin/blocks/blockchair_bitcoin_blocks_20240501.tsv.gz", "CRYPTO.BITCOIN.tsv_file")
	require.Equal(t,
		"COPY INTO CRYPTO.BITCOIN.BLOCKS_RAW FROM @CRYPTO.BITCOIN.dump_stage/bitcoin/blocks/blockchair_bitcoin_blocks_20240501.tsv.gz"+
			" FILE_FORMAT = (FORMAT_NAME = CRYPTO.BITCOIN.tsv_file)", external)
}

func TestSnowflakeQuotelessIdentifierNormalize(t *testing.T) {
	for input, expected := range map[string]string{
		"blocks_raw":  "BLOCKS_RAW",
		"BLOCKS_RAW":  "BLOCKS_RAW",
		"BlocksRaw":   "BlocksRaw",
		"blocks_2024": "BLOCKS_2024",
	} {
		assert.Equal(t, expected, SnowflakeQuotelessIdentifierNormalize(input), "input %q", input)
	}
}

func TestBuildTagsClause(t *testing.T) {
	assert.Empty(t, buildTagsClause(nil))
	assert.Equal(t, "WITH TAG (env = 'prod')", buildTagsClause(map[string]string{"env": "prod"}))
}

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockchair-etl/flow/model"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

func writeDump(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blockchair_bitcoin_transactions_20240501.tsv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestGenerateDDLWritesFiles(t *testing.T) {
	input := writeDump(t,
		"id\tname\tamount",
		"1\talice\t3.14",
		"2\tbob\t2.71",
	)
	outDir := t.TempDir()
	ddlPath := filepath.Join(outDir, "create_transactions.sql")
	jsonPath := filepath.Join(outDir, "schema_transactions.json")

	outcome, err := GenerateDDLMain(t.Context(), &GenerateDDLParams{
		InputPath:      input,
		TableName:      "transactions_raw",
		OutputDDLPath:  ddlPath,
		SchemaJSONPath: jsonPath,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeWroteNew, outcome)

	ddl, err := os.ReadFile(ddlPath)
	require.NoError(t, err)
	require.Equal(t,
		"CREATE OR REPLACE TABLE transactions_raw (\n"+
			"    ID INTEGER,\n"+
			"    NAME VARCHAR(16),\n"+
			"    AMOUNT FLOAT\n"+
			");\n",
		string(ddl))

	sidecar, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	schema, err := model.ParseSchemaJSON(sidecar, "transactions_raw")
	require.NoError(t, err)
	require.Len(t, schema.Columns, 3)

	_, err = os.Stat(ddlPath + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestGenerateDDLCreatesOutputDirectories(t *testing.T) {
	input := writeDump(t, "id", "1")
	ddlPath := filepath.Join(t.TempDir(), "sql", "nested", "create_blocks.sql")

	outcome, err := GenerateDDLMain(t.Context(), &GenerateDDLParams{
		InputPath:     input,
		TableName:     "blocks_raw",
		OutputDDLPath: ddlPath,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeWroteNew, outcome)
	_, err = os.Stat(ddlPath)
	require.NoError(t, err)
}

func TestGenerateDDLSkipExisting(t *testing.T) {
	outDir := t.TempDir()
	ddlPath := filepath.Join(outDir, "create_transactions.sql")
	jsonPath := filepath.Join(outDir, "schema_transactions.json")

	run := func(name string) GenerateOutcome {
		t.Helper()
		input := writeDump(t,
			"id\tname",
			"1\t"+name,
		)
		outcome, err := GenerateDDLMain(t.Context(), &GenerateDDLParams{
			InputPath:      input,
			TableName:      "transactions_raw",
			OutputDDLPath:  ddlPath,
			SchemaJSONPath: jsonPath,
			SkipExisting:   true,
		})
		require.NoError(t, err)
		return outcome
	}

	t.Run("first run writes", func(t *testing.T) {
		require.Equal(t, OutcomeWroteNew, run(strings.Repeat("x", 20)))
		ddl, err := os.ReadFile(ddlPath)
		require.NoError(t, err)
		require.Contains(t, string(ddl), "NAME VARCHAR(32)")
	})

	t.Run("identical rerun keeps files untouched", func(t *testing.T) {
		before, err := os.ReadFile(ddlPath)
		require.NoError(t, err)
		require.Equal(t, OutcomeKeptExisting, run(strings.Repeat("x", 20)))
		after, err := os.ReadFile(ddlPath)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("narrower sample keeps wider schema", func(t *testing.T) {
		require.Equal(t, OutcomeKeptExisting, run("alice"))
		ddl, err := os.ReadFile(ddlPath)
		require.NoError(t, err)
		require.Contains(t, string(ddl), "NAME VARCHAR(32)")
	})

	t.Run("wider sample replaces schema", func(t *testing.T) {
		require.Equal(t, OutcomeWroteNew, run(strings.Repeat("x", 40)))
		ddl, err := os.ReadFile(ddlPath)
		require.NoError(t, err)
		require.Contains(t, string(ddl), "NAME VARCHAR(64)")
	})
}

func TestGenerateDDLSkipExistingWithoutOutputsStillWrites(t *testing.T) {
	input := writeDump(t, "id", "1")

	outcome, err := GenerateDDLMain(t.Context(), &GenerateDDLParams{
		InputPath:    input,
		TableName:    "blocks_raw",
		SkipExisting: true,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeWroteNew, outcome)
}

func TestGenerateDDLPrefersSchemaJSONOverDDL(t *testing.T) {
	input := writeDump(t,
		"id\tname",
		"1\t"+strings.Repeat("x", 20),
	)
	outDir := t.TempDir()
	ddlPath := filepath.Join(outDir, "create_transactions.sql")
	jsonPath := filepath.Join(outDir, "schema_transactions.json")

	// The DDL on disk is wide enough to keep, the JSON sidecar is not. The
	// sidecar must win, forcing a rewrite.
	narrow := model.TableSchema{TableName: "transactions_raw", Columns: []model.Column{
		{Name: "ID", Type: model.ColumnType{Kind: model.KindInteger}},
		{Name: "NAME", Type: model.VarcharType(16)},
	}}
	wide := model.TableSchema{TableName: "transactions_raw", Columns: []model.Column{
		{Name: "ID", Type: model.ColumnType{Kind: model.KindInteger}},
		{Name: "NAME", Type: model.VarcharType(64)},
	}}
	narrowJSON, err := model.MarshalSchemaJSON(narrow)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jsonPath, narrowJSON, 0o644))
	wideDDL, err := model.RenderDDL(wide)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(ddlPath, []byte(wideDDL), 0o644))

	outcome, err := GenerateDDLMain(t.Context(), &GenerateDDLParams{
		InputPath:      input,
		TableName:      "transactions_raw",
		OutputDDLPath:  ddlPath,
		SchemaJSONPath: jsonPath,
		SkipExisting:   true,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeWroteNew, outcome)
}

func TestGenerateDDLCorruptSidecar(t *testing.T) {
	input := writeDump(t, "id", "1")
	jsonPath := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{not json"), 0o644))

	_, err := GenerateDDLMain(t.Context(), &GenerateDDLParams{
		InputPath:      input,
		TableName:      "blocks_raw",
		SchemaJSONPath: jsonPath,
		SkipExisting:   true,
	})
	var inputErr *exceptions.InputError
	require.True(t, errors.As(err, &inputErr))
}

func TestGenerateDDLColumnSelection(t *testing.T) {
	input := writeDump(t,
		"id\tname\tamount",
		"1\talice\t3.14",
	)
	ddlPath := filepath.Join(t.TempDir(), "create.sql")

	outcome, err := GenerateDDLMain(t.Context(), &GenerateDDLParams{
		InputPath:     input,
		TableName:     "transactions_raw",
		OutputDDLPath: ddlPath,
		UseColumns:    []string{"id", "amount"},
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeWroteNew, outcome)

	ddl, err := os.ReadFile(ddlPath)
	require.NoError(t, err)
	require.Contains(t, string(ddl), "ID INTEGER")
	require.Contains(t, string(ddl), "AMOUNT FLOAT")
	require.NotContains(t, string(ddl), "NAME")
}

func TestGenerateDDLSampleRowsOverride(t *testing.T) {
	input := writeDump(t,
		"id",
		"1",
		"not a number",
	)
	ddlPath := filepath.Join(t.TempDir(), "create.sql")

	// Sampling stops after the first row, so the text in the second row
	// never demotes the column.
	_, err := GenerateDDLMain(t.Context(), &GenerateDDLParams{
		InputPath:     input,
		TableName:     "blocks_raw",
		OutputDDLPath: ddlPath,
		SampleRows:    1,
	})
	require.NoError(t, err)

	ddl, err := os.ReadFile(ddlPath)
	require.NoError(t, err)
	require.Contains(t, string(ddl), "ID INTEGER")
}

package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blockchair-etl/flow/shared"
)

var (
	reSQLComments  = regexp.MustCompile(`(?s)--[^\n]*|/\*.*?\*/`)
	reCreateTable  = regexp.MustCompile(`(?is)\bCREATE\s+(?:OR\s+REPLACE\s+)?(?:TRANSIENT\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?("?[A-Za-z0-9_."]+"?)\s*\(`)
	reColumnType   = regexp.MustCompile(`(?i)^([A-Z_0-9]+)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?$`)
	errEmptySchema = errors.New("schema has no columns")
)

// RenderDDL renders schema as a CREATE OR REPLACE TABLE statement, one column
// per line.
func RenderDDL(schema TableSchema) (string, error) {
	if !shared.IsValidTableName(schema.TableName) {
		return "", fmt.Errorf("invalid table name: %s", schema.TableName)
	}
	if len(schema.Columns) == 0 {
		return "", errEmptySchema
	}

	var sb strings.Builder
	sb.WriteString("CREATE OR REPLACE TABLE ")
	sb.WriteString(schema.TableName)
	sb.WriteString(" (\n    ")
	for i, col := range schema.Columns {
		if i > 0 {
			sb.WriteString(",\n    ")
		}
		sb.WriteString(col.Name)
		sb.WriteByte(' ')
		sb.WriteString(col.Type.String())
	}
	sb.WriteString("\n);\n")
	return sb.String(), nil
}

// ColumnDefinitions renders each column as "NAME TYPE", the form embedded in
// CREATE TABLE bodies.
func ColumnDefinitions(schema TableSchema) []string {
	defs := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		defs[i] = col.Name + " " + col.Type.String()
	}
	return defs
}

// ParseColumnType parses a rendered column type, accepting the aliases
// Snowflake reports for each family.
func ParseColumnType(text string) (ColumnType, error) {
	match := reColumnType.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(text)))
	if match == nil {
		return ColumnType{}, fmt.Errorf("unsupported column type: %s", text)
	}

	argument := func(raw string, fallback int64) int64 {
		if raw == "" {
			return fallback
		}
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return fallback
		}
		return n
	}

	switch match[1] {
	case "INTEGER", "INT", "BIGINT", "SMALLINT", "TINYINT", "BYTEINT":
		return ColumnType{Kind: KindInteger}, nil
	case "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "REAL":
		return ColumnType{Kind: KindFloat}, nil
	case "NUMERIC", "NUMBER", "DECIMAL":
		precision := argument(match[2], 38)
		scale := argument(match[3], 0)
		return NumericType(int16(precision), int16(scale)), nil
	case "VARCHAR", "STRING", "TEXT":
		return VarcharType(int32(argument(match[2], int64(VarcharMaxLength)))), nil
	case "BOOLEAN", "BOOL":
		return ColumnType{Kind: KindBoolean}, nil
	case "DATE":
		return ColumnType{Kind: KindDate}, nil
	case "TIMESTAMP", "TIMESTAMP_NTZ", "TIMESTAMP_TZ", "TIMESTAMP_LTZ", "DATETIME":
		return ColumnType{Kind: KindTimestamp}, nil
	default:
		return ColumnType{}, fmt.Errorf("unsupported column type: %s", text)
	}
}

// ParseDDL reads a previously rendered CREATE TABLE statement back into a
// TableSchema. Comments are stripped, the table name may be qualified, and
// type aliases are accepted.
func ParseDDL(text string) (TableSchema, error) {
	cleaned := reSQLComments.ReplaceAllString(text, "")

	match := reCreateTable.FindStringSubmatchIndex(cleaned)
	if match == nil {
		return TableSchema{}, errors.New("no CREATE TABLE statement found")
	}

	tableName := cleaned[match[2]:match[3]]
	if dot := strings.LastIndexByte(tableName, '.'); dot >= 0 {
		tableName = tableName[dot+1:]
	}
	tableName = strings.Trim(tableName, `"`)

	body, err := tableBody(cleaned[match[1]:])
	if err != nil {
		return TableSchema{}, err
	}

	var columns []Column
	for _, definition := range splitTopLevel(body) {
		fields := strings.Fields(definition)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return TableSchema{}, fmt.Errorf("malformed column definition: %s", strings.TrimSpace(definition))
		}
		columnType, err := ParseColumnType(strings.Join(fields[1:], " "))
		if err != nil {
			return TableSchema{}, err
		}
		columns = append(columns, Column{
			Name: strings.ToUpper(strings.Trim(fields[0], `"`)),
			Type: columnType,
		})
	}
	if len(columns) == 0 {
		return TableSchema{}, errEmptySchema
	}

	return TableSchema{TableName: tableName, Columns: columns}, nil
}

// tableBody returns everything up to the parenthesis closing the column list.
// The opening parenthesis is already consumed by the caller.
func tableBody(text string) (string, error) {
	depth := 1
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return text[:i], nil
			}
		}
	}
	return "", errors.New("unbalanced parentheses in CREATE TABLE statement")
}

func splitTopLevel(body string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, body[start:])
}

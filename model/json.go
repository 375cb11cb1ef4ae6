package model

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type columnJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// MarshalSchemaJSON renders the schema sidecar consumed by the SQL models: a
// flat array of {"name","type"} objects in column order.
func MarshalSchemaJSON(schema TableSchema) ([]byte, error) {
	doc := make([]columnJSON, len(schema.Columns))
	for i, col := range schema.Columns {
		doc[i] = columnJSON{Name: col.Name, Type: col.Type.String()}
	}
	data, err := jsonAPI.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema json: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseSchemaJSON reads a schema sidecar back into a TableSchema.
func ParseSchemaJSON(data []byte, tableName string) (TableSchema, error) {
	var doc []columnJSON
	if err := jsonAPI.Unmarshal(data, &doc); err != nil {
		return TableSchema{}, fmt.Errorf("failed to parse schema json: %w", err)
	}
	if len(doc) == 0 {
		return TableSchema{}, errEmptySchema
	}

	columns := make([]Column, len(doc))
	for i, col := range doc {
		columnType, err := ParseColumnType(col.Type)
		if err != nil {
			return TableSchema{}, err
		}
		columns[i] = Column{Name: col.Name, Type: columnType}
	}
	return TableSchema{TableName: tableName, Columns: columns}, nil
}

// Package model defines the table schema document the pipeline passes between
// inference, generated DDL files and the warehouse connector.
package model

import "fmt"

type TypeKind string

const (
	KindInteger   TypeKind = "INTEGER"
	KindFloat     TypeKind = "FLOAT"
	KindNumeric   TypeKind = "NUMERIC"
	KindVarchar   TypeKind = "VARCHAR"
	KindBoolean   TypeKind = "BOOLEAN"
	KindDate      TypeKind = "DATE"
	KindTimestamp TypeKind = "TIMESTAMP"
)

// VarcharMaxLength is the widest VARCHAR Snowflake accepts.
const VarcharMaxLength int32 = 16777216

type ColumnType struct {
	Kind      TypeKind
	Length    int32 // VARCHAR only
	Precision int16 // NUMERIC only
	Scale     int16 // NUMERIC only
}

func VarcharType(length int32) ColumnType {
	return ColumnType{Kind: KindVarchar, Length: length}
}

func NumericType(precision, scale int16) ColumnType {
	return ColumnType{Kind: KindNumeric, Precision: precision, Scale: scale}
}

func (t ColumnType) String() string {
	switch t.Kind {
	case KindVarchar:
		return fmt.Sprintf("VARCHAR(%d)", t.Length)
	case KindNumeric:
		return fmt.Sprintf("NUMERIC(%d,%d)", t.Precision, t.Scale)
	default:
		return string(t.Kind)
	}
}

type Column struct {
	Name string
	Type ColumnType
}

// TableSchema is an ordered column list for one table. Column order always
// mirrors the source file header.
type TableSchema struct {
	TableName string
	Columns   []Column
}

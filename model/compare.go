package model

import "strings"

type SchemaDecision int8

const (
	DecisionReplaceExisting SchemaDecision = iota
	DecisionKeepExisting
)

func (d SchemaDecision) String() string {
	if d == DecisionKeepExisting {
		return "keep-existing"
	}
	return "replace-existing"
}

// digits in math.MaxInt64
const int64Digits = 19

// narrowest VARCHAR that can hold any textual value of a non-varchar kind
const (
	integerTextWidth   = int64Digits + 1 // sign
	floatTextWidth     = 24              // shortest round-trip form of float64
	booleanTextWidth   = 5
	dateTextWidth      = 10
	timestampTextWidth = 35
)

// WiderOrEqual reports whether a column of type existing can hold every value
// admissible under fresh without loss of width.
func WiderOrEqual(existing, fresh ColumnType) bool {
	switch existing.Kind {
	case KindInteger:
		return fresh.Kind == KindInteger
	case KindNumeric:
		switch fresh.Kind {
		case KindInteger:
			return existing.Precision-existing.Scale >= int64Digits
		case KindNumeric:
			return existing.Precision-existing.Scale >= fresh.Precision-fresh.Scale &&
				existing.Scale >= fresh.Scale
		default:
			return false
		}
	case KindFloat:
		return fresh.Kind == KindFloat || fresh.Kind == KindInteger || fresh.Kind == KindNumeric
	case KindBoolean:
		return fresh.Kind == KindBoolean
	case KindDate:
		return fresh.Kind == KindDate
	case KindTimestamp:
		return fresh.Kind == KindTimestamp || fresh.Kind == KindDate
	case KindVarchar:
		if fresh.Kind == KindVarchar {
			return existing.Length >= fresh.Length
		}
		return existing.Length >= minTextWidth(fresh)
	default:
		return false
	}
}

func minTextWidth(t ColumnType) int32 {
	switch t.Kind {
	case KindInteger:
		return integerTextWidth
	case KindNumeric:
		return int32(t.Precision) + 2 // sign and decimal point
	case KindFloat:
		return floatTextWidth
	case KindBoolean:
		return booleanTextWidth
	case KindDate:
		return dateTextWidth
	case KindTimestamp:
		return timestampTextWidth
	default:
		return VarcharMaxLength
	}
}

// CompareSchemas decides whether a freshly inferred schema should replace an
// existing one. The existing schema is kept only when every column is at
// least as wide as its fresh counterpart; any change in column names, order
// or count replaces the existing schema.
func CompareSchemas(existing, fresh TableSchema) SchemaDecision {
	if len(existing.Columns) != len(fresh.Columns) {
		return DecisionReplaceExisting
	}
	for i, existingColumn := range existing.Columns {
		freshColumn := fresh.Columns[i]
		if !strings.EqualFold(existingColumn.Name, freshColumn.Name) {
			return DecisionReplaceExisting
		}
		if !WiderOrEqual(existingColumn.Type, freshColumn.Type) {
			return DecisionReplaceExisting
		}
	}
	return DecisionKeepExisting
}

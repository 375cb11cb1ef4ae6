package inference

import (
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/blockchair-etl/flow/datatypes"
)

// ColumnProfile accumulates everything the type decision needs about one
// column position. The all-* flags start true and collapse permanently once
// a value contradicts them.
type ColumnProfile struct {
	Name string

	NonEmpty  int
	MaxLength int32

	AllInteger        bool
	AllNumeric        bool
	AllBoolean        bool
	MaxIntegerDigits  int16
	MaxFractionDigits int16

	layoutViable []bool
}

func newColumnProfile(name string, layoutCount int) *ColumnProfile {
	viable := make([]bool, layoutCount)
	for i := range viable {
		viable[i] = true
	}
	return &ColumnProfile{
		Name:         name,
		AllInteger:   true,
		AllNumeric:   true,
		AllBoolean:   true,
		layoutViable: viable,
	}
}

// Observe folds one raw field value into the profile. Null markers only set
// the missing-value bookkeeping, so gaps never narrow a decision.
func (p *ColumnProfile) Observe(cfg *Config, value string) {
	if slices.Contains(cfg.NullMarkers, value) {
		return
	}
	p.NonEmpty++

	if length := int32(utf8.RuneCountInString(value)); length > p.MaxLength {
		p.MaxLength = length
	}
	if p.AllBoolean && !isBooleanLiteral(value) {
		p.AllBoolean = false
	}
	if p.AllInteger && !isIntegerLiteral(value) {
		p.AllInteger = false
	}
	if p.AllNumeric {
		if d, err := decimal.NewFromString(value); err != nil {
			p.AllNumeric = false
		} else {
			integerDigits, fractionDigits := datatypes.DigitCounts(d)
			p.MaxIntegerDigits = max(p.MaxIntegerDigits, integerDigits)
			p.MaxFractionDigits = max(p.MaxFractionDigits, fractionDigits)
		}
	}
	for i, layout := range cfg.TimestampLayouts {
		if p.layoutViable[i] {
			if _, err := time.Parse(layout, value); err != nil {
				p.layoutViable[i] = false
			}
		}
	}
}

// FirstViableLayout returns the first configured layout every non-empty
// value parsed against.
func (p *ColumnProfile) FirstViableLayout(cfg *Config) (string, bool) {
	if p.NonEmpty == 0 {
		return "", false
	}
	for i, viable := range p.layoutViable {
		if viable {
			return cfg.TimestampLayouts[i], true
		}
	}
	return "", false
}

// isIntegerLiteral reports whether value is an optionally signed decimal
// integer within int64 range.
func isIntegerLiteral(value string) bool {
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

func isBooleanLiteral(value string) bool {
	switch strings.ToLower(value) {
	case "true", "false":
		return true
	default:
		return false
	}
}

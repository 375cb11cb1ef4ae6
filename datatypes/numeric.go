package datatypes

import (
	"github.com/shopspring/decimal"
)

const (
	SnowflakeNumericPrecision int16 = 38
	SnowflakeNumericScale     int16 = 20

	// float64 round-trips at most 15 significant decimal digits; columns
	// observed beyond that need an exact NUMERIC type
	FloatSafeDigits int16 = 15
)

type WarehouseNumericCompatibility interface {
	MaxPrecision() int16
	MaxScale() int16
	DefaultPrecisionAndScale() (int16, int16)
	IsValidPrecisionAndScale(precision, scale int16) bool
}

type SnowflakeNumericCompatibility struct{}

func (c SnowflakeNumericCompatibility) MaxPrecision() int16 {
	return 38
}

func (c SnowflakeNumericCompatibility) MaxScale() int16 {
	return 37
}

func (c SnowflakeNumericCompatibility) DefaultPrecisionAndScale() (int16, int16) {
	return SnowflakeNumericPrecision, SnowflakeNumericScale
}

func (c SnowflakeNumericCompatibility) IsValidPrecisionAndScale(precision, scale int16) bool {
	return precision > 0 && precision <= 38 && scale < precision
}

// DigitCounts reports how many decimal digits d carries before and after the
// decimal point. A zero integer part still counts as one digit, so 0.001
// reports (1, 3).
func DigitCounts(d decimal.Decimal) (int16, int16) {
	digits := int16(d.NumDigits())
	exponent := int16(d.Exponent())
	if exponent >= 0 {
		return digits + exponent, 0
	}

	fraction := exponent * -1
	integer := digits - fraction
	if integer < 1 {
		integer = 1
	}
	return integer, fraction
}

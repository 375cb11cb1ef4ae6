package connsnowflake

import (
	"strings"
	"unicode"
)

func isLower(s string) bool {
	for _, r := range s {
		if !unicode.IsLower(r) && unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// SnowflakeQuotelessIdentifierNormalize upper-cases all-lower identifiers,
// matching how Snowflake resolves unquoted names. Mixed-case input is
// returned unchanged.
func SnowflakeQuotelessIdentifierNormalize(identifier string) string {
	if isLower(identifier) {
		return strings.ToUpper(identifier)
	}
	return identifier
}

package shared

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reIllegalIdentifierCharacters = regexp.MustCompile("[^a-zA-Z0-9_]+")
	reLegalTableName              = regexp.MustCompile("^[a-zA-Z][a-zA-Z0-9_]*$")
)

func ReplaceIllegalCharactersWithUnderscores(s string) string {
	return reIllegalIdentifierCharacters.ReplaceAllString(s, "_")
}

func IsValidTableName(s string) bool {
	return reLegalTableName.MatchString(s)
}

// NormalizeColumnName turns a raw header field into a Snowflake-safe column
// name: illegal characters become underscores, the result is uppercased and
// trimmed of leading/trailing underscores. Names that do not start with a
// letter get a COL_ prefix; an empty result falls back to the column index.
func NormalizeColumnName(raw string, index int) string {
	name := strings.Trim(strings.ToUpper(ReplaceIllegalCharactersWithUnderscores(raw)), "_")
	if name == "" {
		return "COL_" + strconv.Itoa(index)
	}
	if name[0] < 'A' || name[0] > 'Z' {
		return "COL_" + name
	}
	return name
}

package dialect

import (
	"fmt"
	"strings"
)

type SnowflakeDialect struct{}

// QuoteIdentifier uppercases so quoted names resolve the same as unquoted ones.
func (SnowflakeDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(strings.ToUpper(identifier), `"`, `""`))
}

func (SnowflakeDialect) Placeholder(_ int) string {
	return "?"
}

// IsTableDoesNotExistErr will check if the resulting error message looks like this
// Table 'DATABASE.SCHEMA.TABLE' does not exist or not authorized.
func (SnowflakeDialect) IsTableDoesNotExistErr(err error) bool {
	if err == nil {
		return false
	}

	return strings.Contains(err.Error(), "does not exist or not authorized")
}

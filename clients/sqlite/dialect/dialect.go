package dialect

import (
	"fmt"
	"strings"
)

type SQLiteDialect struct{}

func (SQLiteDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(identifier, `"`, `""`))
}

func (SQLiteDialect) Placeholder(_ int) string {
	return "?"
}

// IsTableDoesNotExistErr matches on the message since sqlite3.Error carries the generic SQLITE_ERROR code.
func (SQLiteDialect) IsTableDoesNotExistErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

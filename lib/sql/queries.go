package sql

import (
	"fmt"
	"strings"
)

func placeholders(dialect Dialect, start, count int) []string {
	parts := make([]string, count)
	for i := range count {
		parts[i] = dialect.Placeholder(start + i)
	}
	return parts
}

func equalities(dialect Dialect, columns []string, start int) []string {
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = fmt.Sprintf("%s = %s", dialect.QuoteIdentifier(column), dialect.Placeholder(start+i))
	}
	return parts
}

// BuildProbeQuery returns a query that touches [tableID] without reading any rows.
func BuildProbeQuery(tableID TableIdentifier) string {
	return fmt.Sprintf("SELECT 1 FROM %s WHERE 1 = 0", tableID.FullyQualifiedName())
}

// BuildLookupQuery selects [columns] for the row whose [keyColumns] match the bind parameters, in order.
func BuildLookupQuery(dialect Dialect, tableID TableIdentifier, columns, keyColumns []string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(QuoteIdentifiers(columns, dialect), ", "),
		tableID.FullyQualifiedName(),
		strings.Join(equalities(dialect, keyColumns, 1), " AND "),
	)
}

func BuildInsertQuery(dialect Dialect, tableID TableIdentifier, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableID.FullyQualifiedName(),
		strings.Join(QuoteIdentifiers(columns, dialect), ", "),
		strings.Join(placeholders(dialect, 1, len(columns)), ", "),
	)
}

// BuildUpdateQuery binds [setColumns] first and [keyColumns] after them.
func BuildUpdateQuery(dialect Dialect, tableID TableIdentifier, setColumns, keyColumns []string) string {
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		tableID.FullyQualifiedName(),
		strings.Join(equalities(dialect, setColumns, 1), ", "),
		strings.Join(equalities(dialect, keyColumns, len(setColumns)+1), " AND "),
	)
}

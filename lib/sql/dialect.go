package sql

type TableIdentifier interface {
	Schema() string
	Table() string
	EscapedTable() string
	FullyQualifiedName() string
}

type Dialect interface {
	QuoteIdentifier(identifier string) string
	// Placeholder returns the bind parameter for the 1-based position [index].
	Placeholder(index int) string
	IsTableDoesNotExistErr(err error) bool
}

// QuoteIdentifiers quotes every name with [dialect].
func QuoteIdentifiers(identifiers []string, dialect Dialect) []string {
	result := make([]string, len(identifiers))
	for i, identifier := range identifiers {
		result[i] = dialect.QuoteIdentifier(identifier)
	}
	return result
}

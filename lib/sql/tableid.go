package sql

import "fmt"

type tableIdentifier struct {
	dialect Dialect
	schema  string
	table   string
}

// NewTableIdentifier returns a table quoted with [dialect]. An empty schema is left off so the session default applies.
func NewTableIdentifier(dialect Dialect, schema, table string) TableIdentifier {
	return tableIdentifier{dialect: dialect, schema: schema, table: table}
}

func (ti tableIdentifier) Schema() string {
	return ti.schema
}

func (ti tableIdentifier) Table() string {
	return ti.table
}

func (ti tableIdentifier) EscapedTable() string {
	return ti.dialect.QuoteIdentifier(ti.table)
}

func (ti tableIdentifier) FullyQualifiedName() string {
	if ti.schema == "" {
		return ti.EscapedTable()
	}
	return fmt.Sprintf("%s.%s", ti.dialect.QuoteIdentifier(ti.schema), ti.EscapedTable())
}

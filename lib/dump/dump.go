package dump

import (
	"iter"
	"strings"

	"github.com/artie-labs/dwmerge/lib/typing"
)

// Row is a single tuple of an INSERT statement. Columns is shared by every row of the statement and is empty when
// the statement had no column list.
type Row struct {
	Columns []string
	Values  []typing.Value
}

// Dump holds the INSERT statements of a textual SQL dump. Tuples are only parsed while iterating, so every call to
// [Dump.Rows] reads them again from the retained text.
type Dump struct {
	statements []statement
	tables     []string
	byTable    map[string][]int
	// Inserts whose table could not be read.
	unattributed []*ParseError
}

func Extract(text string) *Dump {
	d := &Dump{byTable: make(map[string][]int)}
	for index, raw := range splitStatements(text) {
		stmt, ok := parseHeader(index, raw)
		if !ok {
			continue
		}

		if stmt.table == "" {
			d.unattributed = append(d.unattributed, stmt.err)
			continue
		}

		key := strings.ToLower(stmt.table)
		if _, ok := d.byTable[key]; !ok {
			d.tables = append(d.tables, stmt.table)
		}

		d.byTable[key] = append(d.byTable[key], len(d.statements))
		d.statements = append(d.statements, stmt)
	}

	return d
}

// Tables returns the table names in the order they first appear.
func (d *Dump) Tables() []string {
	out := make([]string, len(d.tables))
	copy(out, d.tables)
	return out
}

// Err returns the first INSERT statement that could not be attributed to a table.
func (d *Dump) Err() error {
	if len(d.unattributed) == 0 {
		return nil
	}
	return d.unattributed[0]
}

func (d *Dump) HasTable(table string) bool {
	_, ok := d.byTable[strings.ToLower(table)]
	return ok
}

// Rows yields every row inserted into [table], matched case-insensitively, across all of its statements.
// A malformed statement yields a [*ParseError] instead of its rows and ends the sequence.
func (d *Dump) Rows(table string) iter.Seq2[Row, error] {
	indexes := d.byTable[strings.ToLower(table)]
	return func(yield func(Row, error) bool) {
		for _, idx := range indexes {
			rows, err := d.statements[idx].rows()
			if err != nil {
				yield(Row{}, err)
				return
			}

			for _, row := range rows {
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}

func (d *Dump) All() map[string]iter.Seq2[Row, error] {
	out := make(map[string]iter.Seq2[Row, error], len(d.tables))
	for _, table := range d.tables {
		out[table] = d.Rows(table)
	}
	return out
}

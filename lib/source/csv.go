package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/artie-labs/dwmerge/lib/dump"
	"github.com/artie-labs/dwmerge/lib/typing"
)

// nullTokens are the cell values exports use for a missing value, compared case-insensitively.
var nullTokens = []string{"", "NULL", "N/A", "NONE"}

func isNullToken(cell string) bool {
	cell = strings.TrimSpace(cell)
	for _, token := range nullTokens {
		if strings.EqualFold(cell, token) {
			return true
		}
	}
	return false
}

// ReadCSV yields the rows of a CSV file whose first record is the header. Cells are text, coercion to the
// column kinds happens on merge.
func ReadCSV(table string, data []byte) iter.Seq2[dump.Row, error] {
	return func(yield func(dump.Row, error) bool) {
		reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
		reader.ReuseRecord = false

		header, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(dump.Row{}, fmt.Errorf("failed to read header of %q: %w", table, err))
			return
		}

		columns := make([]string, len(header))
		for i, column := range header {
			columns[i] = strings.TrimSpace(column)
		}

		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(dump.Row{}, fmt.Errorf("failed to read %q: %w", table, err))
				return
			}

			values := make([]typing.Value, len(record))
			for i, cell := range record {
				if isNullToken(cell) {
					values[i] = typing.Null()
				} else {
					values[i] = typing.NewText(cell)
				}
			}

			if !yield(dump.Row{Columns: columns, Values: values}, nil) {
				return
			}
		}
	}
}

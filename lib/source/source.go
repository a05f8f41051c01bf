package source

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/artie-labs/dwmerge/lib/config/constants"
	"github.com/artie-labs/dwmerge/lib/dump"
	"github.com/artie-labs/dwmerge/lib/schema"
)

// system is the parsed blob of a single source system.
type system interface {
	rows(table string) (iter.Seq2[dump.Row, error], bool)
}

type dumpSystem struct {
	dump *dump.Dump
}

func (d dumpSystem) rows(table string) (iter.Seq2[dump.Row, error], bool) {
	return d.dump.Rows(table), d.dump.HasTable(table)
}

type csvSystem struct {
	files map[string][]byte
}

func (c csvSystem) rows(table string) (iter.Seq2[dump.Row, error], bool) {
	data, ok := c.files[strings.ToLower(table)]
	if !ok {
		return func(func(dump.Row, error) bool) {}, false
	}
	return ReadCSV(table, data), true
}

// Source serves the rows of every table from the blobs of its source systems.
type Source struct {
	systems map[string]system
}

// New parses one blob per source system, keyed by system name.
func New(format constants.SourceFormat, blobs map[string][]byte) (*Source, error) {
	s := &Source{systems: make(map[string]system, len(blobs))}
	for name, blob := range blobs {
		name = strings.ToLower(name)
		switch format {
		case constants.Dump:
			text, err := Gunzip(blob)
			if err != nil {
				return nil, fmt.Errorf("failed to read blob for system %q: %w", name, err)
			}

			extracted := dump.Extract(string(text))
			if err = extracted.Err(); err != nil {
				slog.Warn("Dump has statements that could not be read", slog.String("system", name), slog.Any("err", err))
			}
			s.systems[name] = dumpSystem{dump: extracted}
		case constants.CSV:
			files, err := ExtractCSVFiles(blob)
			if err != nil {
				return nil, fmt.Errorf("failed to read blob for system %q: %w", name, err)
			}
			s.systems[name] = csvSystem{files: files}
		default:
			return nil, fmt.Errorf("invalid source format: %q", format)
		}
	}
	return s, nil
}

// Rows returns the rows of [desc] aligned to its columns. A table the blob has no rows for yields nothing.
func (s *Source) Rows(_ context.Context, desc *schema.Descriptor) (iter.Seq2[schema.Row, error], error) {
	sys, ok := s.systems[desc.System()]
	if !ok {
		return nil, fmt.Errorf("no data for system %q", desc.System())
	}

	rows, found := sys.rows(desc.Name())
	if !found {
		slog.Warn("Source has no rows for table", slog.String("table", desc.ID()))
	}

	return func(yield func(schema.Row, error) bool) {
		for row, err := range rows {
			if err != nil {
				yield(nil, err)
				return
			}

			aligned, err := desc.Align(row.Columns, row.Values)
			if !yield(aligned, err) || err != nil {
				return
			}
		}
	}, nil
}

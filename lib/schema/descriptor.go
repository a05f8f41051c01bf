package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/artie-labs/dwmerge/lib/typing"
)

type KeyKind string

const (
	// Surrogate keys are a single integer column.
	Surrogate KeyKind = "surrogate"
	// Natural keys are a single column of any kind.
	Natural KeyKind = "natural"
	// Composite keys are an ordered tuple of two or more columns.
	Composite KeyKind = "composite"
)

type Key struct {
	Kind    KeyKind  `yaml:"kind"`
	Columns []string `yaml:"columns"`
}

type Column struct {
	Name string
	Kind typing.Kind
}

// Row is aligned to the column order of its [Descriptor].
type Row []typing.Value

// Descriptor describes how a source table maps onto a warehouse table.
// Descriptors are immutable once built by [NewDescriptor].
type Descriptor struct {
	name       string
	system     string
	target     string
	columns    []Column
	key        Key
	references []string

	keyIndexes []int
	isKey      []bool
	byName     map[string]int
}

func NewDescriptor(system, name, target string, columns []Column, key Key, references []string) (*Descriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}

	if system == "" {
		return nil, fmt.Errorf("system cannot be empty for table %q", name)
	}

	if target == "" {
		return nil, fmt.Errorf("target cannot be empty for table %q", name)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q has no columns", name)
	}

	d := &Descriptor{
		name:       name,
		system:     system,
		target:     target,
		columns:    slices.Clone(columns),
		key:        Key{Kind: key.Kind, Columns: slices.Clone(key.Columns)},
		references: slices.Clone(references),
		isKey:      make([]bool, len(columns)),
		byName:     make(map[string]int, len(columns)),
	}

	for i, column := range d.columns {
		if column.Name == "" {
			return nil, fmt.Errorf("table %q: column %d has no name", name, i)
		}

		if !column.Kind.IsValid() {
			return nil, fmt.Errorf("table %q: column %q has no type", name, column.Name)
		}

		normalized := strings.ToLower(column.Name)
		if _, ok := d.byName[normalized]; ok {
			return nil, fmt.Errorf("table %q: duplicate column %q", name, column.Name)
		}
		d.byName[normalized] = i
	}

	if err := d.indexKey(); err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}

	return d, nil
}

func (d *Descriptor) indexKey() error {
	switch d.key.Kind {
	case Surrogate, Natural:
		if len(d.key.Columns) != 1 {
			return fmt.Errorf("%s key requires exactly one column, got %d", d.key.Kind, len(d.key.Columns))
		}
	case Composite:
		if len(d.key.Columns) < 2 {
			return fmt.Errorf("composite key requires at least two columns, got %d", len(d.key.Columns))
		}
	default:
		return fmt.Errorf("unsupported key kind: %q", d.key.Kind)
	}

	for _, keyColumn := range d.key.Columns {
		idx, ok := d.byName[strings.ToLower(keyColumn)]
		if !ok {
			return fmt.Errorf("key column %q does not exist", keyColumn)
		}

		if d.isKey[idx] {
			return fmt.Errorf("key column %q is listed twice", keyColumn)
		}

		if d.key.Kind == Surrogate && d.columns[idx].Kind != typing.Integer {
			return fmt.Errorf("surrogate key column %q must be an integer, got %s", keyColumn, d.columns[idx].Kind)
		}

		d.isKey[idx] = true
		d.keyIndexes = append(d.keyIndexes, idx)
	}

	return nil
}

func (d *Descriptor) Name() string {
	return d.name
}

func (d *Descriptor) System() string {
	return d.system
}

// ID returns the catalog-wide identifier, `system.name`.
func (d *Descriptor) ID() string {
	return strings.ToLower(d.system + "." + d.name)
}

func (d *Descriptor) Target() string {
	return d.target
}

func (d *Descriptor) Columns() []Column {
	return slices.Clone(d.columns)
}

func (d *Descriptor) Key() Key {
	return Key{Kind: d.key.Kind, Columns: slices.Clone(d.key.Columns)}
}

func (d *Descriptor) References() []string {
	return slices.Clone(d.references)
}

// KeyIndexes returns the positions of the key columns, in key order.
func (d *Descriptor) KeyIndexes() []int {
	return slices.Clone(d.keyIndexes)
}

func (d *Descriptor) IsKey(idx int) bool {
	return idx >= 0 && idx < len(d.isKey) && d.isKey[idx]
}

// TrackedColumns returns the non-key columns, in descriptor order.
func (d *Descriptor) TrackedColumns() []Column {
	var out []Column
	for i, column := range d.columns {
		if !d.isKey[i] {
			out = append(out, column)
		}
	}
	return out
}

func (d *Descriptor) ColumnIndex(name string) (int, bool) {
	idx, ok := d.byName[strings.ToLower(name)]
	return idx, ok
}

// KeyOf extracts the key tuple from an aligned row.
func (d *Descriptor) KeyOf(row Row) []typing.Value {
	out := make([]typing.Value, len(d.keyIndexes))
	for i, idx := range d.keyIndexes {
		out[i] = row[idx]
	}
	return out
}

// Align re-orders values read against [columns] into descriptor order. Names match case-insensitively
// and columns the source did not provide are null. When [columns] is empty the values are taken positionally.
func (d *Descriptor) Align(columns []string, values []typing.Value) (Row, error) {
	row := make(Row, len(d.columns))
	for i, column := range d.columns {
		row[i] = typing.NullOf(column.Kind)
	}

	if len(columns) == 0 {
		if len(values) != len(d.columns) {
			return nil, fmt.Errorf("table %q expects %d values, got %d", d.name, len(d.columns), len(values))
		}

		copy(row, values)
		return row, nil
	}

	if len(columns) != len(values) {
		return nil, fmt.Errorf("table %q: %d columns but %d values", d.name, len(columns), len(values))
	}

	seen := make([]bool, len(d.columns))
	for i, column := range columns {
		idx, ok := d.ColumnIndex(column)
		if !ok {
			return nil, fmt.Errorf("table %q has no column %q", d.name, column)
		}

		if seen[idx] {
			return nil, fmt.Errorf("table %q: column %q provided twice", d.name, column)
		}

		seen[idx] = true
		row[idx] = values[i]
	}

	return row, nil
}

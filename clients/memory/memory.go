package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/artie-labs/dwmerge/lib/destination"
	"github.com/artie-labs/dwmerge/lib/schema"
	"github.com/artie-labs/dwmerge/lib/typing"
)

// Warehouse keeps every table in memory. It backs dry runs and tests.
type Warehouse struct {
	mu     sync.Mutex
	tables map[string]*tableData
	closed bool
}

type tableData struct {
	// order holds fingerprints in insertion order.
	order []string
	rows  map[string]destination.StoredRow
}

func newTableData() *tableData {
	return &tableData{rows: make(map[string]destination.StoredRow)}
}

func NewWarehouse() *Warehouse {
	return &Warehouse{tables: make(map[string]*tableData)}
}

func (w *Warehouse) Table(desc *schema.Descriptor) (destination.Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, fmt.Errorf("warehouse is closed")
	}

	if _, ok := w.tables[desc.Target()]; !ok {
		w.tables[desc.Target()] = newTableData()
	}

	return &Table{warehouse: w, desc: desc}, nil
}

func (w *Warehouse) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Rows returns a copy of the committed rows of [target] in the order they were first inserted.
func (w *Warehouse) Rows(target string) []destination.StoredRow {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, ok := w.tables[target]
	if !ok {
		return nil
	}

	out := make([]destination.StoredRow, 0, len(data.order))
	for _, fingerprint := range data.order {
		out = append(out, copyRow(data.rows[fingerprint]))
	}
	return out
}

func copyRow(row destination.StoredRow) destination.StoredRow {
	return destination.StoredRow{Row: slices.Clone(row.Row), Audit: row.Audit}
}

type Table struct {
	warehouse *Warehouse
	desc      *schema.Descriptor
}

func (t *Table) Descriptor() *schema.Descriptor {
	return t.desc
}

func (t *Table) Begin(_ context.Context) (destination.Tx, error) {
	t.warehouse.mu.Lock()
	defer t.warehouse.mu.Unlock()

	if t.warehouse.closed {
		return nil, fmt.Errorf("warehouse is closed")
	}

	return &Tx{table: t, pending: newTableData()}, nil
}

// Tx stages writes and only applies them to the warehouse on commit.
type Tx struct {
	table   *Table
	pending *tableData
	done    bool
}

func (t *Tx) committed(fingerprint string) (destination.StoredRow, bool) {
	t.table.warehouse.mu.Lock()
	defer t.table.warehouse.mu.Unlock()

	row, ok := t.table.warehouse.tables[t.table.desc.Target()].rows[fingerprint]
	return row, ok
}

func (t *Tx) find(key []typing.Value) (destination.StoredRow, bool) {
	fingerprint := typing.Fingerprint(key)
	if row, ok := t.pending.rows[fingerprint]; ok {
		return row, true
	}
	return t.committed(fingerprint)
}

func (t *Tx) Lookup(_ context.Context, key []typing.Value) (destination.StoredRow, bool, error) {
	if t.done {
		return destination.StoredRow{}, false, fmt.Errorf("transaction is already finished")
	}

	row, ok := t.find(key)
	if !ok {
		return destination.StoredRow{}, false, nil
	}
	return copyRow(row), true, nil
}

func (t *Tx) Insert(_ context.Context, row schema.Row, audit destination.AuditState) error {
	if t.done {
		return fmt.Errorf("transaction is already finished")
	}

	key := t.table.desc.KeyOf(row)
	if _, ok := t.find(key); ok {
		return fmt.Errorf("duplicate key (%s)", typing.Fingerprint(key))
	}

	t.stage(typing.Fingerprint(key), destination.StoredRow{Row: slices.Clone(row), Audit: audit})
	return nil
}

func (t *Tx) Update(_ context.Context, row schema.Row, columns []string, lastChangedAt time.Time) error {
	if t.done {
		return fmt.Errorf("transaction is already finished")
	}

	key := t.table.desc.KeyOf(row)
	existing, ok := t.find(key)
	if !ok {
		return fmt.Errorf("no row with key (%s)", typing.Fingerprint(key))
	}

	updated := copyRow(existing)
	for _, column := range columns {
		idx, ok := t.table.desc.ColumnIndex(column)
		if !ok {
			return fmt.Errorf("unknown column %q", column)
		}
		updated.Row[idx] = row[idx]
	}
	updated.Audit.LastChangedAt = lastChangedAt

	t.stage(typing.Fingerprint(key), updated)
	return nil
}

func (t *Tx) stage(fingerprint string, row destination.StoredRow) {
	if _, ok := t.pending.rows[fingerprint]; !ok {
		t.pending.order = append(t.pending.order, fingerprint)
	}
	t.pending.rows[fingerprint] = row
}

func (t *Tx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction is already finished")
	}
	t.done = true

	t.table.warehouse.mu.Lock()
	defer t.table.warehouse.mu.Unlock()

	data := t.table.warehouse.tables[t.table.desc.Target()]
	for _, fingerprint := range t.pending.order {
		if _, ok := data.rows[fingerprint]; !ok {
			data.order = append(data.order, fingerprint)
		}
		data.rows[fingerprint] = t.pending.rows[fingerprint]
	}
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return fmt.Errorf("transaction is already finished")
	}
	t.done = true
	t.pending = newTableData()
	return nil
}

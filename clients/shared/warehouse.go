package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/artie-labs/dwmerge/lib/db"
	"github.com/artie-labs/dwmerge/lib/destination"
	"github.com/artie-labs/dwmerge/lib/schema"
	libsql "github.com/artie-labs/dwmerge/lib/sql"
	"github.com/artie-labs/dwmerge/lib/typing"
)

type Options struct {
	// Schema qualifies every table. Left empty the session default is used.
	Schema       string
	AuditColumns destination.AuditColumns
}

// Warehouse runs every table through one [db.Store], normally a single pinned connection.
type Warehouse struct {
	store   db.Store
	dialect libsql.Dialect
	options Options
	closeFn func() error
}

func NewWarehouse(store db.Store, dialect libsql.Dialect, options Options, closeFn func() error) *Warehouse {
	options.AuditColumns = options.AuditColumns.WithDefaults()
	return &Warehouse{store: store, dialect: dialect, options: options, closeFn: closeFn}
}

func (w *Warehouse) Dialect() libsql.Dialect {
	return w.dialect
}

func (w *Warehouse) Table(desc *schema.Descriptor) (destination.Table, error) {
	tableID := libsql.NewTableIdentifier(w.dialect, w.options.Schema, desc.Target())

	columns := make([]string, 0, len(desc.Columns())+2)
	for _, column := range desc.Columns() {
		if strings.EqualFold(column.Name, w.options.AuditColumns.FirstSeen) || strings.EqualFold(column.Name, w.options.AuditColumns.LastChanged) {
			return nil, fmt.Errorf("column %q of %q collides with an audit column", column.Name, desc.ID())
		}
		columns = append(columns, column.Name)
	}
	columns = append(columns, w.options.AuditColumns.FirstSeen, w.options.AuditColumns.LastChanged)

	return &Table{
		warehouse:   w,
		desc:        desc,
		tableID:     tableID,
		probeQuery:  libsql.BuildProbeQuery(tableID),
		lookupQuery: libsql.BuildLookupQuery(w.dialect, tableID, columns, desc.Key().Columns),
		insertQuery: libsql.BuildInsertQuery(w.dialect, tableID, columns),
	}, nil
}

func (w *Warehouse) Close() error {
	if w.closeFn == nil {
		return nil
	}
	return w.closeFn()
}

type Table struct {
	warehouse *Warehouse
	desc      *schema.Descriptor
	tableID   libsql.TableIdentifier

	probeQuery  string
	lookupQuery string
	insertQuery string
}

func (t *Table) Descriptor() *schema.Descriptor {
	return t.desc
}

func (t *Table) TableIdentifier() libsql.TableIdentifier {
	return t.tableID
}

func (t *Table) wrap(err error) error {
	if t.warehouse.dialect.IsTableDoesNotExistErr(err) {
		return destination.TableNotFoundError{Table: t.tableID.FullyQualifiedName(), Err: err}
	}
	return err
}

// Begin opens a transaction and checks the table is there, so a missing table fails even for an empty batch.
func (t *Table) Begin(ctx context.Context) (destination.Tx, error) {
	tx, err := t.warehouse.store.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start tx: %w", err)
	}

	slog.Debug("Executing...", slog.String("query", t.probeQuery))
	rows, err := tx.QueryContext(ctx, t.probeQuery)
	if err == nil {
		err = errors.Join(rows.Err(), rows.Close())
	}
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			slog.Warn("Unable to rollback", slog.String("table", t.desc.Target()), slog.Any("err", rollbackErr))
		}
		return nil, t.wrap(err)
	}

	return &Tx{table: t, tx: tx}, nil
}

type Tx struct {
	table *Table
	tx    *sql.Tx
}

func driverValues(values []typing.Value) []any {
	args := make([]any, len(values))
	for i, value := range values {
		args[i] = value.DriverValue()
	}
	return args
}

func (t *Tx) Lookup(ctx context.Context, key []typing.Value) (destination.StoredRow, bool, error) {
	columns := t.table.desc.Columns()
	raw := make([]any, len(columns)+2)
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}

	if err := t.tx.QueryRowContext(ctx, t.table.lookupQuery, driverValues(key)...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return destination.StoredRow{}, false, nil
		}
		return destination.StoredRow{}, false, t.table.wrap(err)
	}

	row := make(schema.Row, len(columns))
	for i, column := range columns {
		value, err := typing.Coerce(column.Kind, raw[i])
		if err != nil {
			return destination.StoredRow{}, false, fmt.Errorf("failed to read stored column %q: %w", column.Name, err)
		}
		row[i] = value
	}

	audit := t.table.warehouse.options.AuditColumns
	firstSeen, err := auditTime(raw[len(columns)])
	if err != nil {
		return destination.StoredRow{}, false, fmt.Errorf("failed to read %q: %w", audit.FirstSeen, err)
	}
	lastChanged, err := auditTime(raw[len(columns)+1])
	if err != nil {
		return destination.StoredRow{}, false, fmt.Errorf("failed to read %q: %w", audit.LastChanged, err)
	}

	return destination.StoredRow{Row: row, Audit: destination.AuditState{FirstSeenAt: firstSeen, LastChangedAt: lastChanged}}, true, nil
}

// auditTime reads an audit column. Rows loaded outside the merge may have it null, which reads as the zero time.
func auditTime(raw any) (time.Time, error) {
	value, err := typing.Coerce(typing.Timestamp, raw)
	if err != nil {
		return time.Time{}, err
	}
	if value.IsNull() {
		return time.Time{}, nil
	}
	return value.Timestamp(), nil
}

func (t *Tx) exec(ctx context.Context, query string, args []any) error {
	slog.Debug("Executing...", slog.String("query", query))
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return t.table.wrap(err)
	}
	return nil
}

func (t *Tx) Insert(ctx context.Context, row schema.Row, audit destination.AuditState) error {
	args := append(driverValues(row), audit.FirstSeenAt.UTC(), audit.LastChangedAt.UTC())
	return t.exec(ctx, t.table.insertQuery, args)
}

// Update sets [columns] and the last changed audit column on the row matching the key of [row].
func (t *Tx) Update(ctx context.Context, row schema.Row, columns []string, lastChangedAt time.Time) error {
	desc := t.table.desc
	args := make([]any, 0, len(columns)+1+len(desc.KeyIndexes()))
	for _, column := range columns {
		idx, ok := desc.ColumnIndex(column)
		if !ok {
			return fmt.Errorf("unknown column %q", column)
		}
		args = append(args, row[idx].DriverValue())
	}
	args = append(args, lastChangedAt.UTC())
	args = append(args, driverValues(desc.KeyOf(row))...)

	setColumns := append(append([]string{}, columns...), t.table.warehouse.options.AuditColumns.LastChanged)
	query := libsql.BuildUpdateQuery(t.table.warehouse.dialect, t.table.tableID, setColumns, desc.Key().Columns)
	return t.exec(ctx, query, args)
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

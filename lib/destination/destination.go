package destination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artie-labs/dwmerge/lib/schema"
	"github.com/artie-labs/dwmerge/lib/typing"
)

const (
	DefaultFirstSeenColumn   = "DW_LAST_INSERTED"
	DefaultLastChangedColumn = "DW_LAST_UPDATED"
)

// AuditColumns names the two warehouse columns that carry [AuditState].
type AuditColumns struct {
	FirstSeen   string `yaml:"firstSeen"`
	LastChanged string `yaml:"lastChanged"`
}

func DefaultAuditColumns() AuditColumns {
	return AuditColumns{FirstSeen: DefaultFirstSeenColumn, LastChanged: DefaultLastChangedColumn}
}

func (a AuditColumns) WithDefaults() AuditColumns {
	if a.FirstSeen == "" {
		a.FirstSeen = DefaultFirstSeenColumn
	}
	if a.LastChanged == "" {
		a.LastChanged = DefaultLastChangedColumn
	}
	return a
}

// AuditState is kept alongside every warehouse row. FirstSeenAt is written once, on insert.
// LastChangedAt moves on insert and on every update that changes a tracked column.
type AuditState struct {
	FirstSeenAt   time.Time
	LastChangedAt time.Time
}

// StoredRow is a warehouse row coerced to its descriptor's kinds.
type StoredRow struct {
	Row   schema.Row
	Audit AuditState
}

// Warehouse is a single session against the warehouse. Every table it hands out shares that session.
type Warehouse interface {
	Table(desc *schema.Descriptor) (Table, error)
	Close() error
}

type Table interface {
	Descriptor() *schema.Descriptor
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a transaction scoped to one table. Nothing is visible to other sessions until [Tx.Commit].
type Tx interface {
	// Lookup returns the stored row for [key], which is in the descriptor's key order.
	Lookup(ctx context.Context, key []typing.Value) (StoredRow, bool, error)
	Insert(ctx context.Context, row schema.Row, audit AuditState) error
	// Update writes [columns] of [row], found by the row's key, and moves LastChangedAt.
	Update(ctx context.Context, row schema.Row, columns []string, lastChangedAt time.Time) error
	Commit() error
	Rollback() error
}

// TableNotFoundError is returned when the warehouse table behind a descriptor does not exist.
// Tables are never created, they have to be provisioned ahead of a run.
type TableNotFoundError struct {
	Table string
	Err   error
}

func (t TableNotFoundError) Error() string {
	if t.Err != nil {
		return fmt.Sprintf("table %q does not exist: %v", t.Table, t.Err)
	}
	return fmt.Sprintf("table %q does not exist", t.Table)
}

func (t TableNotFoundError) Unwrap() error {
	return t.Err
}

func IsTableNotFoundError(err error) bool {
	return errors.As(err, &TableNotFoundError{})
}

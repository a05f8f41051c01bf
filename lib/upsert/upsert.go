package upsert

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/artie-labs/dwmerge/lib/changeset"
	"github.com/artie-labs/dwmerge/lib/destination"
	"github.com/artie-labs/dwmerge/lib/schema"
	"github.com/artie-labs/dwmerge/lib/typing"
)

type MergeResult struct {
	// Table is the warehouse table.
	Table     string
	Inserted  int
	Updated   int
	Unchanged int
	Duration  time.Duration
	Committed bool
	Err       error
}

// Rows returns the number of source rows processed. When the merge did not commit these were rolled back.
func (m MergeResult) Rows() int {
	return m.Inserted + m.Updated + m.Unchanged
}

type Option func(*Executor)

// WithClock overrides where the audit timestamps come from.
func WithClock(clock func() time.Time) Option {
	return func(e *Executor) {
		e.clock = clock
	}
}

func WithPolicy(policy changeset.Policy) Option {
	return func(e *Executor) {
		e.policy = policy
	}
}

// Executor applies a batch of source rows to a warehouse table in a single transaction.
type Executor struct {
	clock  func() time.Time
	policy changeset.Policy
}

func NewExecutor(opts ...Option) *Executor {
	e := &Executor{clock: time.Now, policy: changeset.PolicySentinel}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Merge inserts rows that are new, updates rows whose tracked columns changed and leaves everything else alone.
// Any failure rolls the whole batch back and is returned both as the error and in [MergeResult.Err].
func (e *Executor) Merge(ctx context.Context, table destination.Table, rows iter.Seq2[schema.Row, error]) (MergeResult, error) {
	start := time.Now()
	desc := table.Descriptor()
	result := MergeResult{Table: desc.Target()}

	err := e.merge(ctx, table, rows, &result)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		return result, err
	}

	result.Committed = true
	return result, nil
}

func (e *Executor) merge(ctx context.Context, table destination.Table, rows iter.Seq2[schema.Row, error], result *MergeResult) error {
	desc := table.Descriptor()
	comparator := changeset.NewComparator(desc, e.policy)
	// Every row in the batch carries the same timestamp.
	now := e.clock().UTC().Truncate(time.Microsecond)

	tx, err := table.Begin(ctx)
	if err != nil {
		return &TransactionError{Table: desc.Target(), Op: OpBegin, Err: err}
	}

	var committed bool
	defer func() {
		if !committed {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				slog.Warn("Unable to rollback", slog.String("table", desc.Target()), slog.Any("err", rollbackErr))
			}
		}
	}()

	keyColumns := desc.Key().Columns
	seen := make(map[string]int)
	var rowNumber int
	for row, err := range rows {
		if err != nil {
			return fmt.Errorf("failed to read rows for %q: %w", desc.Target(), err)
		}
		rowNumber++

		coerced, err := coerceRow(desc, row, rowNumber)
		if err != nil {
			return err
		}

		key := desc.KeyOf(coerced)
		for i, value := range key {
			if value.IsNull() {
				return &TransactionError{Table: desc.Target(), Op: OpConstraint, Row: rowNumber, Err: fmt.Errorf("key column %q is null", keyColumns[i])}
			}
		}

		fingerprint := typing.Fingerprint(key)
		if firstRow, ok := seen[fingerprint]; ok {
			return &TransactionError{
				Table: desc.Target(),
				Op:    OpConstraint,
				Row:   rowNumber,
				Err:   fmt.Errorf("key (%s) was already provided by row %d", fingerprint, firstRow),
			}
		}
		seen[fingerprint] = rowNumber

		stored, found, err := tx.Lookup(ctx, key)
		if err != nil {
			return &TransactionError{Table: desc.Target(), Op: OpLookup, Row: rowNumber, Err: err}
		}

		if !found {
			if err = tx.Insert(ctx, coerced, destination.AuditState{FirstSeenAt: now, LastChangedAt: now}); err != nil {
				return &TransactionError{Table: desc.Target(), Op: OpInsert, Row: rowNumber, Err: err}
			}
			result.Inserted++
			continue
		}

		changed := comparator.Diff(coerced, stored.Row)
		if len(changed) == 0 {
			result.Unchanged++
			continue
		}

		lastChangedAt := now
		if lastChangedAt.Before(stored.Audit.FirstSeenAt) {
			// Never let a clock that went backwards put LastChangedAt ahead of FirstSeenAt.
			lastChangedAt = stored.Audit.FirstSeenAt
		}

		if err = tx.Update(ctx, coerced, changed, lastChangedAt); err != nil {
			return &TransactionError{Table: desc.Target(), Op: OpUpdate, Row: rowNumber, Err: err}
		}
		result.Updated++
	}

	if err = tx.Commit(); err != nil {
		return &TransactionError{Table: desc.Target(), Op: OpCommit, Err: err}
	}

	committed = true
	return nil
}

func coerceRow(desc *schema.Descriptor, row schema.Row, rowNumber int) (schema.Row, error) {
	columns := desc.Columns()
	if len(row) != len(columns) {
		return nil, &TypeCoercionError{Table: desc.Target(), Row: rowNumber, Err: fmt.Errorf("expected %d values, got %d", len(columns), len(row))}
	}

	out := make(schema.Row, len(columns))
	for i, column := range columns {
		value, err := typing.Coerce(column.Kind, row[i])
		if err != nil {
			return nil, &TypeCoercionError{Table: desc.Target(), Column: column.Name, Row: rowNumber, Err: err}
		}
		out[i] = value
	}

	return out, nil
}

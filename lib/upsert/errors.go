package upsert

import (
	"errors"
	"fmt"
)

// TypeCoercionError is returned when a source value cannot be cast to its column's kind.
type TypeCoercionError struct {
	Table  string
	Column string
	// Row is the 1-based position of the row within the batch.
	Row int
	Err error
}

func (t *TypeCoercionError) Error() string {
	if t.Column == "" {
		return fmt.Sprintf("failed to coerce row %d of %q: %v", t.Row, t.Table, t.Err)
	}
	return fmt.Sprintf("failed to coerce column %q of row %d of %q: %v", t.Column, t.Row, t.Table, t.Err)
}

func (t *TypeCoercionError) Unwrap() error {
	return t.Err
}

type Op string

const (
	OpBegin      Op = "begin"
	OpConstraint Op = "constraint"
	OpLookup     Op = "lookup"
	OpInsert     Op = "insert"
	OpUpdate     Op = "update"
	OpCommit     Op = "commit"
)

// TransactionError is returned when the table transaction could not be carried out, either because the batch
// violates the table's key constraint or because the warehouse rejected a statement.
type TransactionError struct {
	Table string
	Op    Op
	// Row is the 1-based position of the offending row, zero when the error is not tied to a row.
	Row int
	Err error
}

func (t *TransactionError) Error() string {
	if t.Row > 0 {
		return fmt.Sprintf("%s failed on row %d of %q: %v", t.Op, t.Row, t.Table, t.Err)
	}
	return fmt.Sprintf("%s failed for %q: %v", t.Op, t.Table, t.Err)
}

func (t *TransactionError) Unwrap() error {
	return t.Err
}

func IsTypeCoercionError(err error) bool {
	var coercionErr *TypeCoercionError
	return errors.As(err, &coercionErr)
}

func IsTransactionError(err error) bool {
	var txErr *TransactionError
	return errors.As(err, &txErr)
}

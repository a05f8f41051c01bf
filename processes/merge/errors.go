package merge

import (
	"errors"
	"fmt"

	"github.com/artie-labs/dwmerge/lib/destination"
	"github.com/artie-labs/dwmerge/lib/dump"
	"github.com/artie-labs/dwmerge/lib/upsert"
)

// Reason is why a table failed, as reported in the run summary.
type Reason string

const (
	ReasonParse        Reason = "parse"
	ReasonTypeCoercion Reason = "type_coercion"
	ReasonMissingTable Reason = "missing_table"
	ReasonTransaction  Reason = "transaction"
	ReasonUnknown      Reason = "unknown"
)

// Classify maps an error returned by a run onto a [Reason].
func Classify(err error) Reason {
	switch {
	case err == nil:
		return ""
	case dump.IsParseError(err):
		return ReasonParse
	case upsert.IsTypeCoercionError(err):
		return ReasonTypeCoercion
	// A missing table usually surfaces from inside a transaction, so it is checked first.
	case destination.IsTableNotFoundError(err):
		return ReasonMissingTable
	case upsert.IsTransactionError(err):
		return ReasonTransaction
	default:
		return ReasonUnknown
	}
}

// AbortError is returned by [Orchestrator.RunAll] once a table fails. Tables merged before it stay committed.
type AbortError struct {
	Table string
	Err   error
}

func (a *AbortError) Error() string {
	return fmt.Sprintf("run aborted at table %q (%s): %v", a.Table, Classify(a.Err), a.Err)
}

func (a *AbortError) Unwrap() error {
	return a.Err
}

func IsAbortError(err error) bool {
	var abortErr *AbortError
	return errors.As(err, &abortErr)
}

package typing

import (
	"errors"
	"fmt"
)

// CoercionError is returned when a raw value cannot be cast to a [Kind].
type CoercionError struct {
	Kind  Kind
	Value string
	Err   error
}

func newCoercionError(kind Kind, value any, err error) CoercionError {
	return CoercionError{Kind: kind, Value: fmt.Sprint(value), Err: err}
}

func (c CoercionError) Error() string {
	if c.Err != nil {
		return fmt.Sprintf("failed to coerce %q to %s: %v", c.Value, c.Kind, c.Err)
	}
	return fmt.Sprintf("failed to coerce %q to %s", c.Value, c.Kind)
}

func (c CoercionError) Unwrap() error {
	return c.Err
}

func IsCoercionError(err error) bool {
	return errors.As(err, &CoercionError{})
}

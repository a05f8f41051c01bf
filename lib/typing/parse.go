package typing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Coerce casts a raw value into [Kind]. Raw values are either [Value]s produced by the dump extractor
// or whatever a database driver hands back from a scan.
// Empty strings are treated as null for every kind except [Text].
func Coerce(kind Kind, raw any) (Value, error) {
	if value, ok := raw.(Value); ok {
		if value.IsNull() {
			return NullOf(kind), nil
		}

		if value.kind == kind {
			return value, nil
		}

		raw = value.native()
	}

	if bytes, ok := raw.([]byte); ok {
		if bytes == nil {
			return NullOf(kind), nil
		}
		raw = string(bytes)
	}

	if raw == nil {
		return NullOf(kind), nil
	}

	if str, ok := raw.(string); ok && kind != Text {
		str = strings.TrimSpace(str)
		if str == "" {
			return NullOf(kind), nil
		}
		raw = str
	}

	switch kind {
	case Text:
		return toText(raw)
	case Integer:
		return toInteger(raw)
	case Decimal:
		return toDecimal(raw)
	case Timestamp:
		return toTimestamp(raw)
	case Boolean:
		return toBoolean(raw)
	}

	return Value{}, newCoercionError(kind, raw, fmt.Errorf("unsupported kind"))
}

func toText(raw any) (Value, error) {
	switch castValue := raw.(type) {
	case string:
		return NewText(castValue), nil
	case int64:
		return NewText(strconv.FormatInt(castValue, 10)), nil
	case int:
		return NewText(strconv.Itoa(castValue)), nil
	case float64:
		return NewText(strconv.FormatFloat(castValue, 'f', -1, 64)), nil
	case bool:
		return NewText(strconv.FormatBool(castValue)), nil
	case *apd.Decimal:
		return NewText(castValue.Text('f')), nil
	case time.Time:
		return NewText(castValue.UTC().Format(TimestampLayout)), nil
	}

	return Value{}, newCoercionError(Text, raw, fmt.Errorf("unsupported type: %T", raw))
}

func toInteger(raw any) (Value, error) {
	switch castValue := raw.(type) {
	case int64:
		return NewInteger(castValue), nil
	case int:
		return NewInteger(int64(castValue)), nil
	case int32:
		return NewInteger(int64(castValue)), nil
	case float64:
		if castValue > math.MaxInt64 || castValue < math.MinInt64 {
			return Value{}, newCoercionError(Integer, raw, fmt.Errorf("value overflows int64"))
		}

		if math.Trunc(castValue) != castValue {
			return Value{}, newCoercionError(Integer, raw, fmt.Errorf("value has a fractional component"))
		}

		return NewInteger(int64(castValue)), nil
	case bool:
		if castValue {
			return NewInteger(1), nil
		}
		return NewInteger(0), nil
	case *apd.Decimal:
		return decimalToInteger(castValue)
	case string:
		parsed, err := strconv.ParseInt(castValue, 10, 64)
		if err == nil {
			return NewInteger(parsed), nil
		}

		// Values such as "12.0" or "1e3" are still integers.
		decimal, _, decimalErr := apd.NewFromString(castValue)
		if decimalErr != nil {
			return Value{}, newCoercionError(Integer, raw, err)
		}

		return decimalToInteger(decimal)
	}

	return Value{}, newCoercionError(Integer, raw, fmt.Errorf("unsupported type: %T", raw))
}

func decimalToInteger(decimal *apd.Decimal) (Value, error) {
	var reduced apd.Decimal
	reduced.Reduce(decimal)
	if reduced.Exponent < 0 {
		return Value{}, newCoercionError(Integer, decimal.Text('f'), fmt.Errorf("value has a fractional component"))
	}

	parsed, err := reduced.Int64()
	if err != nil {
		return Value{}, newCoercionError(Integer, decimal.Text('f'), err)
	}

	return NewInteger(parsed), nil
}

func toDecimal(raw any) (Value, error) {
	switch castValue := raw.(type) {
	case *apd.Decimal:
		return NewDecimal(castValue), nil
	case int64:
		return NewDecimal(apd.New(castValue, 0)), nil
	case int:
		return NewDecimal(apd.New(int64(castValue), 0)), nil
	case float64:
		if math.IsNaN(castValue) || math.IsInf(castValue, 0) {
			return Value{}, newCoercionError(Decimal, raw, fmt.Errorf("value is not finite"))
		}
		return toDecimal(strconv.FormatFloat(castValue, 'f', -1, 64))
	case string:
		decimal, _, err := apd.NewFromString(castValue)
		if err != nil {
			return Value{}, newCoercionError(Decimal, raw, err)
		}

		if decimal.Form != apd.Finite {
			return Value{}, newCoercionError(Decimal, raw, fmt.Errorf("value is not finite"))
		}

		return NewDecimal(decimal), nil
	}

	return Value{}, newCoercionError(Decimal, raw, fmt.Errorf("unsupported type: %T", raw))
}

func toTimestamp(raw any) (Value, error) {
	switch castValue := raw.(type) {
	case time.Time:
		return NewTimestamp(castValue), nil
	case string:
		if isZeroDate(castValue) {
			return NullOf(Timestamp), nil
		}

		ts, err := parseTimestamp(castValue)
		if err != nil {
			return Value{}, newCoercionError(Timestamp, raw, err)
		}

		return NewTimestamp(ts), nil
	}

	return Value{}, newCoercionError(Timestamp, raw, fmt.Errorf("unsupported type: %T", raw))
}

func toBoolean(raw any) (Value, error) {
	switch castValue := raw.(type) {
	case bool:
		return NewBoolean(castValue), nil
	case int64:
		return integerToBoolean(raw, castValue)
	case int:
		return integerToBoolean(raw, int64(castValue))
	case float64:
		if math.Trunc(castValue) != castValue {
			return Value{}, newCoercionError(Boolean, raw, fmt.Errorf("value has a fractional component"))
		}
		return integerToBoolean(raw, int64(castValue))
	case *apd.Decimal:
		integer, err := decimalToInteger(castValue)
		if err != nil {
			return Value{}, newCoercionError(Boolean, raw, err)
		}
		return integerToBoolean(raw, integer.Integer())
	case string:
		switch strings.ToLower(castValue) {
		case "true", "t", "yes", "y", "1":
			return NewBoolean(true), nil
		case "false", "f", "no", "n", "0":
			return NewBoolean(false), nil
		}
		return Value{}, newCoercionError(Boolean, raw, fmt.Errorf("unrecognized boolean"))
	}

	return Value{}, newCoercionError(Boolean, raw, fmt.Errorf("unsupported type: %T", raw))
}

func integerToBoolean(raw any, value int64) (Value, error) {
	switch value {
	case 0:
		return NewBoolean(false), nil
	case 1:
		return NewBoolean(true), nil
	}

	return Value{}, newCoercionError(Boolean, raw, fmt.Errorf("integer is neither 0 nor 1"))
}

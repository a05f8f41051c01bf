package typing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Kind is the semantic type of a column.
type Kind string

const (
	Invalid   Kind = ""
	Text      Kind = "text"
	Integer   Kind = "integer"
	Decimal   Kind = "decimal"
	Timestamp Kind = "timestamp"
	Boolean   Kind = "boolean"
)

var kinds = []Kind{Text, Integer, Decimal, Timestamp, Boolean}

func ParseKind(value string) (Kind, error) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range kinds {
		if kind == normalized {
			return kind, nil
		}
	}

	switch normalized {
	case "string", "varchar":
		return Text, nil
	case "int", "bigint":
		return Integer, nil
	case "numeric", "number":
		return Decimal, nil
	case "datetime", "date":
		return Timestamp, nil
	case "bool":
		return Boolean, nil
	}

	return Invalid, fmt.Errorf("unsupported kind: %q", value)
}

func (k Kind) IsValid() bool {
	return k != Invalid
}

// Value is a typed scalar or the null marker. The zero value is an untyped null.
type Value struct {
	kind  Kind
	valid bool

	text    string
	integer int64
	decimal *apd.Decimal
	ts      time.Time
	boolean bool
}

func Null() Value {
	return Value{}
}

func NullOf(kind Kind) Value {
	return Value{kind: kind}
}

func NewText(value string) Value {
	return Value{kind: Text, valid: true, text: value}
}

func NewInteger(value int64) Value {
	return Value{kind: Integer, valid: true, integer: value}
}

func NewDecimal(value *apd.Decimal) Value {
	if value == nil {
		return NullOf(Decimal)
	}
	return Value{kind: Decimal, valid: true, decimal: value}
}

// MustDecimal is used for constants and tests.
func MustDecimal(value string) Value {
	d, _, err := apd.NewFromString(value)
	if err != nil {
		panic(fmt.Sprintf("invalid decimal %q: %v", value, err))
	}
	return NewDecimal(d)
}

func NewTimestamp(value time.Time) Value {
	return Value{kind: Timestamp, valid: true, ts: value.UTC()}
}

func NewBoolean(value bool) Value {
	return Value{kind: Boolean, valid: true, boolean: value}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return !v.valid
}

func (v Value) Text() string {
	return v.text
}

func (v Value) Integer() int64 {
	return v.integer
}

func (v Value) Decimal() *apd.Decimal {
	return v.decimal
}

func (v Value) Timestamp() time.Time {
	return v.ts
}

func (v Value) Boolean() bool {
	return v.boolean
}

// Equal compares two non-null values of the same kind. Null handling is left to the caller,
// here two nulls are equal and a null never equals a non-null value.
func (v Value) Equal(other Value) bool {
	if v.IsNull() || other.IsNull() {
		return v.IsNull() && other.IsNull()
	}

	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case Text:
		return v.text == other.text
	case Integer:
		return v.integer == other.integer
	case Decimal:
		return v.decimal.Cmp(other.decimal) == 0
	case Timestamp:
		return v.ts.Equal(other.ts)
	case Boolean:
		return v.boolean == other.boolean
	}

	return false
}

// DriverValue returns the value to bind as a SQL argument.
func (v Value) DriverValue() any {
	if v.IsNull() {
		return nil
	}

	switch v.kind {
	case Text:
		return v.text
	case Integer:
		return v.integer
	case Decimal:
		return v.decimal.Text('f')
	case Timestamp:
		return v.ts
	case Boolean:
		return v.boolean
	}

	return nil
}

func (v Value) native() any {
	if v.IsNull() {
		return nil
	}

	switch v.kind {
	case Text:
		return v.text
	case Integer:
		return v.integer
	case Decimal:
		return v.decimal
	case Timestamp:
		return v.ts
	case Boolean:
		return v.boolean
	}

	return nil
}

func (v Value) String() string {
	if v.IsNull() {
		return "NULL"
	}

	switch v.kind {
	case Text:
		return v.text
	case Integer:
		return strconv.FormatInt(v.integer, 10)
	case Decimal:
		return v.decimal.Text('f')
	case Timestamp:
		return v.ts.Format(TimestampLayout)
	case Boolean:
		return strconv.FormatBool(v.boolean)
	}

	return ""
}

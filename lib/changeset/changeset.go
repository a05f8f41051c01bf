package changeset

import (
	"fmt"
	"strings"
	"time"

	"github.com/artie-labs/dwmerge/lib/schema"
	"github.com/artie-labs/dwmerge/lib/typing"
)

type Policy string

const (
	// PolicySentinel swaps nulls for a per-kind sentinel before comparing. This is how the warehouse merge
	// procedures have always compared rows, and a real value equal to its sentinel is indistinguishable from null.
	PolicySentinel Policy = "sentinel"
	// PolicyStrict treats null as its own value, so null only ever equals null.
	PolicyStrict Policy = "strict"
)

func ParsePolicy(value string) (Policy, error) {
	switch policy := Policy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "":
		return PolicySentinel, nil
	case PolicySentinel, PolicyStrict:
		return policy, nil
	}

	return "", fmt.Errorf("unsupported comparison policy: %q", value)
}

const (
	TextSentinel    = "~NULL~"
	IntegerSentinel = -999
	DecimalSentinel = "-999.999"
)

var TimestampSentinel = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Sentinel returns the stand-in for null. Booleans use the integer sentinel, which no boolean can equal.
func Sentinel(kind typing.Kind) typing.Value {
	switch kind {
	case typing.Text:
		return typing.NewText(TextSentinel)
	case typing.Decimal:
		return typing.MustDecimal(DecimalSentinel)
	case typing.Timestamp:
		return typing.NewTimestamp(TimestampSentinel)
	default:
		return typing.NewInteger(IntegerSentinel)
	}
}

// Comparator computes which tracked columns differ between a source row and the stored row with the same key.
// Both rows must already be coerced to the descriptor's kinds.
type Comparator struct {
	policy  Policy
	tracked []schema.Column
	indexes []int
}

func NewComparator(desc *schema.Descriptor, policy Policy) Comparator {
	if policy == "" {
		policy = PolicySentinel
	}

	c := Comparator{policy: policy}
	for i, column := range desc.Columns() {
		if desc.IsKey(i) {
			continue
		}

		c.tracked = append(c.tracked, column)
		c.indexes = append(c.indexes, i)
	}

	return c
}

func (c Comparator) Policy() Policy {
	return c.policy
}

// Diff returns the names of the tracked columns that differ, in descriptor order.
func (c Comparator) Diff(source, stored schema.Row) []string {
	var changed []string
	for i, column := range c.tracked {
		idx := c.indexes[i]
		if !c.Equal(column.Kind, valueAt(source, idx), valueAt(stored, idx)) {
			changed = append(changed, column.Name)
		}
	}
	return changed
}

func (c Comparator) Changed(source, stored schema.Row) bool {
	for i, column := range c.tracked {
		idx := c.indexes[i]
		if !c.Equal(column.Kind, valueAt(source, idx), valueAt(stored, idx)) {
			return true
		}
	}
	return false
}

// Equal compares two values of a column with [kind] under the comparator's policy.
func (c Comparator) Equal(kind typing.Kind, a, b typing.Value) bool {
	if c.policy == PolicySentinel {
		if a.IsNull() {
			a = Sentinel(kind)
		}
		if b.IsNull() {
			b = Sentinel(kind)
		}
	}

	return a.Equal(b)
}

func valueAt(row schema.Row, idx int) typing.Value {
	if idx < len(row) {
		return row[idx]
	}
	return typing.Null()
}

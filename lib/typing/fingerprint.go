package typing

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Fingerprint renders a tuple so that tuples which are [Value.Equal] element-wise render identically.
// Decimals are reduced so 1.50 and 1.5 match, and text is quoted so separators inside it are unambiguous.
func Fingerprint(values []Value) string {
	parts := make([]string, len(values))
	for i, value := range values {
		switch {
		case value.IsNull():
			parts[i] = "NULL"
		case value.kind == Text:
			parts[i] = strconv.Quote(value.text)
		case value.kind == Decimal:
			var reduced apd.Decimal
			reduced.Reduce(value.decimal)
			parts[i] = reduced.Text('f')
		default:
			parts[i] = value.String()
		}
	}
	return strings.Join(parts, ", ")
}

package typing

import (
	"fmt"
	"strings"
	"time"
)

const TimestampLayout = "2006-01-02 15:04:05.999999"

// Layouts are tried in order. The fractional seconds are optional in each of them.
var supportedTimestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

// isZeroDate returns true for MySQL style zero dates, which carry no instant.
func isZeroDate(value string) bool {
	return strings.HasPrefix(value, "0000-00-00")
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range supportedTimestampLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported timestamp layout")
}

package dump

import (
	"errors"
	"fmt"
)

const maxExcerptLength = 60

// ParseError is returned for a statement that could not be read. None of that statement's rows are yielded.
type ParseError struct {
	Table string
	// Statement is the 0-based position of the statement within the dump.
	Statement int
	Excerpt   string
	Reason    string
}

func newParseError(table string, statement int, excerpt string, reason string, args ...any) *ParseError {
	return &ParseError{
		Table:     table,
		Statement: statement,
		Excerpt:   truncate(excerpt, maxExcerptLength),
		Reason:    fmt.Sprintf(reason, args...),
	}
}

func (p *ParseError) Error() string {
	return fmt.Sprintf("failed to parse statement %d for table %q: %s (near %q)", p.Statement, p.Table, p.Reason, p.Excerpt)
}

func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

func truncate(value string, length int) string {
	runes := []rune(value)
	if len(runes) <= length {
		return value
	}
	return string(runes[:length])
}

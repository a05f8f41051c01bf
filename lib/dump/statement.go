package dump

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/artie-labs/dwmerge/lib/typing"
)

type statement struct {
	index   int
	table   string
	columns []string
	// body is everything that follows VALUES.
	body string
	err  *ParseError
}

// parseHeader reads `INSERT [IGNORE] INTO <table> [(<columns>)] VALUES`. Statements that don't insert are skipped.
func parseHeader(index int, text string) (statement, bool) {
	c := &cursor{text: text}
	switch {
	case c.keyword("INSERT"):
		_ = c.keyword("LOW_PRIORITY") || c.keyword("DELAYED") || c.keyword("HIGH_PRIORITY")
		c.keyword("IGNORE")
	case c.keyword("REPLACE"):
		_ = c.keyword("LOW_PRIORITY") || c.keyword("DELAYED")
	default:
		return statement{}, false
	}
	c.keyword("INTO")

	stmt := statement{index: index}
	table, ok := c.qualifiedIdentifier()
	if !ok {
		stmt.err = newParseError("", index, text, "missing table name")
		return stmt, true
	}
	stmt.table = table

	c.skipSpace()
	if c.peek() == '(' {
		columns, ok := parseColumnList(c)
		if !ok {
			stmt.err = newParseError(table, index, text, "malformed column list")
			return stmt, true
		}
		stmt.columns = columns
	}

	if !c.keyword("VALUES") && !c.keyword("VALUE") {
		c.skipSpace()
		stmt.err = newParseError(table, index, c.rest(), "missing VALUES")
		return stmt, true
	}

	stmt.body = c.rest()
	return stmt, true
}

func parseColumnList(c *cursor) ([]string, bool) {
	// Skip the opening parenthesis.
	c.pos++
	var columns []string
	for {
		column, ok := c.identifier()
		if !ok {
			return nil, false
		}
		columns = append(columns, column)

		c.skipSpace()
		switch c.peek() {
		case ',':
			c.pos++
		case ')':
			c.pos++
			return columns, true
		default:
			return nil, false
		}
	}
}

// rows parses every tuple in the statement. The statement either yields all of its rows or none of them.
func (s statement) rows() ([]Row, error) {
	if s.err != nil {
		return nil, s.err
	}

	c := &cursor{text: s.body}
	width := len(s.columns)

	var rows []Row
	for {
		c.skipSpace()
		if len(rows) > 0 {
			if c.eof() || c.keyword("ON") {
				// Trailing `ON DUPLICATE KEY UPDATE` clauses do not change what the rows are.
				return rows, nil
			}

			switch c.peek() {
			case ',':
			case ')':
				return nil, newParseError(s.table, s.index, c.rest(), "unbalanced parentheses")
			default:
				return nil, newParseError(s.table, s.index, c.rest(), "expected ',' between tuples")
			}
			c.pos++
			c.skipSpace()
		}

		start := c.pos
		if c.peek() != '(' {
			if c.eof() && len(rows) == 0 {
				return nil, newParseError(s.table, s.index, s.body, "no tuples after VALUES")
			}
			return nil, newParseError(s.table, s.index, c.rest(), "expected '(' to open a tuple")
		}

		values, reason := parseTuple(c)
		if reason != "" {
			return nil, newParseError(s.table, s.index, s.body[start:], "tuple %d: %s", len(rows)+1, reason)
		}

		if width == 0 {
			width = len(values)
		} else if len(values) != width {
			return nil, newParseError(s.table, s.index, s.body[start:], "tuple %d has %d values, expected %d", len(rows)+1, len(values), width)
		}

		rows = append(rows, Row{Columns: s.columns, Values: values})
	}
}

// parseTuple reads `(v1, v2, ...)`. A non-empty reason is returned when the tuple is malformed.
func parseTuple(c *cursor) ([]typing.Value, string) {
	// Skip the opening parenthesis.
	c.pos++
	var values []typing.Value
	for {
		c.skipSpace()
		if c.eof() {
			return nil, "unbalanced parentheses"
		}

		switch c.peek() {
		case '\'', '"':
			text, ok := c.quoted()
			if !ok {
				return nil, "unterminated string literal"
			}
			values = append(values, typing.NewText(text))
		default:
			token, reason := bareToken(c)
			if reason != "" {
				return nil, reason
			}
			values = append(values, typeLiteral(token))
		}

		c.skipSpace()
		switch c.peek() {
		case ',':
			c.pos++
		case ')':
			c.pos++
			return values, ""
		case 0:
			return nil, "unbalanced parentheses"
		default:
			return nil, "unexpected character " + strconv.QuoteRune(rune(c.peek()))
		}
	}
}

// bareToken reads an unquoted literal up to the next top-level comma or closing parenthesis.
// Function calls such as `NOW()` are kept whole.
func bareToken(c *cursor) (string, string) {
	start := c.pos
	depth := 0
	for !c.eof() {
		switch c.peek() {
		case '\'', '"':
			if _, ok := c.quoted(); !ok {
				return "", "unterminated string literal"
			}
			continue
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return finishToken(c.text[start:c.pos])
			}
			depth--
		case ',':
			if depth == 0 {
				return finishToken(c.text[start:c.pos])
			}
		}
		c.pos++
	}

	return "", "unbalanced parentheses"
}

func finishToken(token string) (string, string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty value"
	}
	return token, ""
}

// typeLiteral types an unquoted literal. Integers that overflow int64 become decimals and anything unrecognised
// such as `CURRENT_TIMESTAMP` is kept as text.
func typeLiteral(token string) typing.Value {
	switch strings.ToUpper(token) {
	case "NULL":
		return typing.Null()
	case "TRUE":
		return typing.NewBoolean(true)
	case "FALSE":
		return typing.NewBoolean(false)
	}

	integer, err := strconv.ParseInt(token, 10, 64)
	if err == nil {
		return typing.NewInteger(integer)
	}

	if errors.Is(err, strconv.ErrRange) || looksNumeric(token) {
		if decimal, _, err := apd.NewFromString(token); err == nil && decimal.Form == apd.Finite {
			return typing.NewDecimal(decimal)
		}
	}

	return typing.NewText(token)
}

// looksNumeric guards against the non-numeric spellings apd accepts, such as `Infinity`.
func looksNumeric(token string) bool {
	digits := false
	for i := 0; i < len(token); i++ {
		switch char := token[i]; {
		case char >= '0' && char <= '9':
			digits = true
		case char == '.' || char == '+' || char == '-' || char == 'e' || char == 'E':
		default:
			return false
		}
	}
	return digits
}

package dump

import (
	"strings"
	"unicode"
)

type cursor struct {
	text string
	pos  int
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.text)
}

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.text[c.pos]
}

func (c *cursor) rest() string {
	return c.text[c.pos:]
}

func (c *cursor) skipSpace() {
	for !c.eof() && unicode.IsSpace(rune(c.text[c.pos])) {
		c.pos++
	}
}

func isIdentifierChar(char byte) bool {
	return char == '_' || char == '$' || char >= 0x80 ||
		(char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')
}

// keyword consumes [word] if it is next, ignoring case. The keyword must not run into an identifier.
func (c *cursor) keyword(word string) bool {
	c.skipSpace()
	end := c.pos + len(word)
	if end > len(c.text) || !strings.EqualFold(c.text[c.pos:end], word) {
		return false
	}

	if end < len(c.text) && isIdentifierChar(c.text[end]) {
		return false
	}

	c.pos = end
	return true
}

// identifier reads a bare, backtick, double quoted or bracketed identifier.
func (c *cursor) identifier() (string, bool) {
	c.skipSpace()
	if c.eof() {
		return "", false
	}

	switch open := c.peek(); open {
	case '`', '"', '[':
		closing := open
		if open == '[' {
			closing = ']'
		}

		var out strings.Builder
		for i := c.pos + 1; i < len(c.text); i++ {
			if c.text[i] != closing {
				out.WriteByte(c.text[i])
				continue
			}

			// Doubled closing characters are escapes.
			if i+1 < len(c.text) && c.text[i+1] == closing {
				out.WriteByte(closing)
				i++
				continue
			}

			c.pos = i + 1
			return out.String(), out.Len() > 0
		}
		return "", false
	}

	start := c.pos
	for !c.eof() && isIdentifierChar(c.peek()) {
		c.pos++
	}
	return c.text[start:c.pos], c.pos > start
}

// qualifiedIdentifier reads `a.b.c` and returns the last segment.
func (c *cursor) qualifiedIdentifier() (string, bool) {
	name, ok := c.identifier()
	if !ok {
		return "", false
	}

	for {
		c.skipSpace()
		if c.peek() != '.' {
			return name, true
		}

		c.pos++
		name, ok = c.identifier()
		if !ok {
			return "", false
		}
	}
}

// quoted reads a string literal starting at the current quote, un-escaping doubled quotes and backslash escapes.
func (c *cursor) quoted() (string, bool) {
	quote := c.peek()
	var out strings.Builder
	for i := c.pos + 1; i < len(c.text); i++ {
		char := c.text[i]
		switch {
		case char == '\\':
			if i+1 >= len(c.text) {
				return "", false
			}
			i++
			out.WriteString(unescape(c.text[i]))
		case char == quote:
			if i+1 < len(c.text) && c.text[i+1] == quote {
				out.WriteByte(quote)
				i++
				continue
			}
			c.pos = i + 1
			return out.String(), true
		default:
			out.WriteByte(char)
		}
	}

	return "", false
}

func unescape(char byte) string {
	switch char {
	case 'n':
		return "\n"
	case 'r':
		return "\r"
	case 't':
		return "\t"
	case '0':
		return "\x00"
	case 'Z':
		return "\x1a"
	case 'b':
		return "\b"
	case '%', '_':
		// LIKE wildcards keep their backslash.
		return `\` + string(char)
	}
	return string(char)
}

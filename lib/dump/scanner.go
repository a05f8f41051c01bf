package dump

import "strings"

// splitStatements cuts text at semicolons that are outside string literals, quoted identifiers and comments.
// Comments are replaced with a single space, everything else is kept as-is.
func splitStatements(text string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      byte
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(text); i++ {
		char := text[i]
		if quote != 0 {
			current.WriteByte(char)
			switch {
			case char == '\\' && quote != '`' && i+1 < len(text):
				i++
				current.WriteByte(text[i])
			case char == quote:
				quote = 0
			}
			continue
		}

		switch {
		case char == '\'' || char == '"' || char == '`':
			quote = char
			current.WriteByte(char)
		case char == '[':
			// Bracketed identifiers cannot contain a terminator, copy them through in one go.
			end := strings.IndexByte(text[i:], ']')
			if end < 0 {
				current.WriteString(text[i:])
				i = len(text)
			} else {
				current.WriteString(text[i : i+end+1])
				i += end
			}
		case char == '-' && isLineComment(text[i:]), char == '#':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				i = len(text)
			} else {
				i += end
			}
			current.WriteByte(' ')
		case char == '/' && strings.HasPrefix(text[i:], "/*"):
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				i = len(text)
			} else {
				i += end + 3
			}
			current.WriteByte(' ')
		case char == ';':
			flush()
		default:
			current.WriteByte(char)
		}
	}

	flush()
	return statements
}

// isLineComment follows MySQL, where `--` only starts a comment when followed by whitespace.
func isLineComment(text string) bool {
	if !strings.HasPrefix(text, "--") {
		return false
	}
	return len(text) == 2 || strings.ContainsRune(" \t\r\n", rune(text[2]))
}

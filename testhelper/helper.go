package testhelper

import "strings"

// Squish collapses every whitespace run outside single-quoted SQL literals into one
// space and trims both ends. Literal contents are left untouched.
func Squish(sql string) string {
	var sb strings.Builder

	inLiteral := false
	pendingSpace := false

	for _, r := range sql {
		if inLiteral {
			sb.WriteRune(r)

			if r == '\'' {
				inLiteral = false
			}

			continue
		}

		switch r {
		case ' ', '\t', '\n', '\r':
			pendingSpace = true
			continue
		case '\'':
			inLiteral = true
		}

		if pendingSpace && sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		pendingSpace = false

		sb.WriteRune(r)
	}

	return sb.String()
}

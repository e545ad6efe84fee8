package updater

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// EnforceRowCondition checks that an UPDATE restricts the rows it touches, either with a
// top-level WHERE clause or with the ON condition of a joined update.
// WithAllowingNoWhereUpdate disables the check for a context.
func EnforceRowCondition(ctx context.Context, table, query string) error {
	if ec := extractExecutionContext(ctx); ec != nil && ec.allowNoWhere {
		return nil
	}

	words := topLevelWords(query)
	if !isUpdate(words) {
		return nil
	}

	for i, w := range words {
		if w != "WHERE" && w != "ON" {
			continue
		}

		if i+1 < len(words) && words[i+1] != "SET" {
			return nil
		}
	}

	return fmt.Errorf("%w: UPDATE %s attempted without WHERE clause. use updater.WithAllowingNoWhereUpdate to opt-in when intentional", ErrEmptyWhereClause, table)
}

// IsDangerousQuery reports whether sql is an UPDATE or DELETE without a row condition.
func IsDangerousQuery(sql string) bool {
	words := topLevelWords(sql)
	if len(words) == 0 {
		return false
	}

	if !isUpdate(words) && words[0] != "DELETE" {
		return false
	}

	for i, w := range words {
		if (w == "WHERE" || w == "ON") && i+1 < len(words) && words[i+1] != "SET" {
			return false
		}
	}

	return true
}

func isUpdate(words []string) bool {
	if len(words) == 0 {
		return false
	}

	switch words[0] {
	case "UPDATE":
		return true
	case "WITH":
		for _, w := range words {
			if w == "UPDATE" {
				return true
			}
		}
	}

	return false
}

// topLevelWords upper-cases the words found outside parentheses, string literals and
// quoted identifiers. Quoted runs become a single "?" word.
func topLevelWords(sql string) []string {
	var (
		words []string
		word  strings.Builder
		depth int
	)

	flush := func() {
		if word.Len() > 0 {
			if depth == 0 {
				words = append(words, strings.ToUpper(word.String()))
			}

			word.Reset()
		}
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		switch {
		case c == '\'' || c == '"' || c == '`':
			flush()

			i = skipQuoted(sql, i, c)

			if depth == 0 {
				words = append(words, "?")
			}
		case c == '(':
			flush()

			depth++
		case c == ')':
			flush()

			if depth > 0 {
				depth--
			}
		case c == '.' || c == ',' || c == '=' || c == ';':
			flush()
		case unicode.IsSpace(rune(c)):
			flush()
		default:
			word.WriteByte(c)
		}
	}

	flush()

	return words
}

// skipQuoted returns the index of the closing quote of the run starting at start.
// A doubled quote continues the run. Backslash is not an escape: the builder doubles
// backslashes on MySQL, so the quote after one is always a real delimiter.
func skipQuoted(sql string, start int, quote byte) int {
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != quote {
			continue
		}

		if i+1 < len(sql) && sql[i+1] == quote {
			i++
			continue
		}

		return i
	}

	return len(sql)
}

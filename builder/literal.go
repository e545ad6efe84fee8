package builder

import (
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
)

// Literal renders v as a SQL literal for the dialect.
// Text is never trimmed or collapsed; only quotes (and backslashes on MySQL) are escaped.
func Literal(v patch.Value, dialect batchupdate.Dialect) (string, error) {
	switch v.Kind() {
	case patch.KindNull:
		return "NULL", nil
	case patch.KindString, patch.KindJSON:
		return QuoteString(v.Text(), dialect), nil
	case patch.KindInt:
		return strconv.FormatInt(v.Int(), 10), nil
	case patch.KindFloat:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%w: %v has no SQL literal", batchupdate.ErrUnsupportedValue, f)
		}

		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case patch.KindDecimal:
		return v.Decimal().String(), nil
	case patch.KindBool:
		return boolLiteral(v.Bool(), dialect), nil
	case patch.KindDate:
		return QuoteString(v.Time().Format(patch.DateLayout), dialect), nil
	case patch.KindTimestamp:
		return QuoteString(v.Time().Format(patch.TimestampLayout), dialect), nil
	case patch.KindTime:
		return QuoteString(v.Time().Format(patch.TimeLayout), dialect), nil
	case patch.KindUUID:
		return QuoteString(v.UUID().String(), dialect), nil
	case patch.KindBytes:
		return bytesLiteral(v.Bytes(), dialect), nil
	}

	return "", fmt.Errorf("%w: kind %s", batchupdate.ErrUnsupportedValue, v.Kind())
}

// QuoteString wraps s in single quotes, doubling embedded quotes.
// MySQL and MariaDB treat backslash as an escape character, so it is doubled there as well.
func QuoteString(s string, dialect batchupdate.Dialect) string {
	escapes := dialect.Supports(batchupdate.FeatureBackslashEscape)

	var sb strings.Builder

	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c == '\'':
			sb.WriteString("''")
		case c == '\\' && escapes:
			sb.WriteString(`\\`)
		case c == 0 && escapes:
			sb.WriteString(`\0`)
		default:
			sb.WriteByte(c)
		}
	}

	sb.WriteByte('\'')

	return sb.String()
}

func boolLiteral(b bool, dialect batchupdate.Dialect) string {
	if dialect.Supports(batchupdate.FeatureBooleanLiteral) {
		if b {
			return "TRUE"
		}

		return "FALSE"
	}

	if b {
		return "1"
	}

	return "0"
}

func bytesLiteral(b []byte, dialect batchupdate.Dialect) string {
	switch dialect {
	case batchupdate.DialectPostgres:
		return `'\x` + hex.EncodeToString(b) + `'`
	case batchupdate.DialectDuckDB:
		var sb strings.Builder

		sb.WriteByte('\'')

		for _, c := range b {
			sb.WriteString(`\x`)
			sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
		}

		sb.WriteString(`'::BLOB`)

		return sb.String()
	default:
		return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'"
	}
}

// QuoteIdentifier quotes a single identifier with the dialect's quote character.
func QuoteIdentifier(name string, dialect batchupdate.Dialect) string {
	if dialect.IsMySQLFamily() {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}

	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteTable quotes each dot separated part of a possibly schema-qualified table name.
func QuoteTable(name string, dialect batchupdate.Dialect) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdentifier(p, dialect)
	}

	return strings.Join(parts, ".")
}

var plainIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// reservedWords covers the reserved key words of PostgreSQL, MySQL, SQLite and DuckDB
// that can appear as column names.
var reservedWords = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true, "array": true,
	"as": true, "asc": true, "asymmetric": true, "authorization": true, "between": true,
	"bigint": true, "binary": true, "both": true, "by": true, "call": true, "case": true,
	"cast": true, "change": true, "check": true, "collate": true, "collation": true,
	"column": true, "concurrently": true, "condition": true, "constraint": true,
	"create": true, "cross": true, "cube": true, "current_catalog": true,
	"current_date": true, "current_role": true, "current_schema": true, "current_time": true,
	"current_timestamp": true, "current_user": true, "cursor": true, "database": true,
	"databases": true, "default": true, "deferrable": true, "delete": true, "desc": true,
	"describe": true, "distinct": true, "div": true, "do": true, "drop": true, "else": true,
	"elseif": true, "end": true, "except": true, "exists": true, "explain": true,
	"false": true, "fetch": true, "for": true, "force": true, "foreign": true, "freeze": true,
	"from": true, "full": true, "function": true, "generated": true, "grant": true,
	"group": true, "grouping": true, "groups": true, "having": true, "ilike": true,
	"in": true, "index": true, "initially": true, "inner": true, "insert": true,
	"intersect": true, "interval": true, "into": true, "is": true, "isnull": true,
	"join": true, "key": true, "keys": true, "lag": true, "lateral": true, "lead": true,
	"leading": true, "left": true, "like": true, "limit": true, "localtime": true,
	"localtimestamp": true, "match": true, "mod": true, "natural": true, "not": true,
	"notnull": true, "null": true, "of": true, "offset": true, "on": true, "only": true,
	"or": true, "order": true, "outer": true, "over": true, "overlaps": true,
	"partition": true, "placing": true, "primary": true, "range": true, "rank": true,
	"read": true, "recursive": true, "references": true, "release": true, "rename": true,
	"repeat": true, "replace": true, "require": true, "returning": true, "right": true,
	"row": true, "rows": true, "schema": true, "select": true, "session_user": true,
	"set": true, "show": true, "similar": true, "some": true, "sql": true, "symmetric": true,
	"system_user": true, "table": true, "tablesample": true, "then": true, "to": true,
	"trailing": true, "trigger": true, "true": true, "union": true, "unique": true,
	"update": true, "usage": true, "user": true, "using": true, "values": true,
	"variadic": true, "verbose": true, "when": true, "where": true, "window": true,
	"with": true, "xor": true,
}

// headerIdentifier renders a column of the patch relation header. Plain lower-case
// names are written bare; anything else is quoted.
func headerIdentifier(name string, dialect batchupdate.Dialect) string {
	if plainIdentifier.MatchString(name) && !reservedWords[name] {
		return name
	}

	return QuoteIdentifier(name, dialect)
}

package builder

import (
	"regexp"
	"strings"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
)

// castTarget returns the type written inside CAST(... AS <type>) for the first VALUES row.
func castTarget(dialect batchupdate.Dialect, declared string, first patch.Value) string {
	declared = strings.TrimSpace(declared)

	switch dialect {
	case batchupdate.DialectMySQL, batchupdate.DialectMariaDB:
		return mysqlCastTarget(declared)
	case batchupdate.DialectSQLite:
		return sqliteCastTarget(declared, first)
	default:
		return declared
	}
}

var typeParams = regexp.MustCompile(`\(([^)]*)\)`)

// mysqlCastTarget maps a declared column type onto the limited set of types MySQL accepts in CAST.
func mysqlCastTarget(declared string) string {
	lower := strings.ToLower(declared)
	unsigned := strings.Contains(lower, "unsigned")
	params := ""

	if m := typeParams.FindStringSubmatch(lower); m != nil {
		params = strings.ReplaceAll(m[1], " ", "")
	}

	base := strings.TrimSpace(typeParams.ReplaceAllString(lower, ""))
	if fields := strings.Fields(base); len(fields) > 0 {
		base = fields[0]
	}

	switch base {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint", "year", "bool", "boolean", "bit":
		if unsigned {
			return "UNSIGNED"
		}

		return "SIGNED"
	case "decimal", "numeric", "dec", "fixed":
		if params != "" {
			return "DECIMAL(" + params + ")"
		}

		return "DECIMAL"
	case "float":
		return "FLOAT"
	case "double", "real":
		return "DOUBLE"
	case "date":
		return "DATE"
	case "datetime", "timestamp":
		if params != "" {
			return "DATETIME(" + params + ")"
		}

		return "DATETIME"
	case "time":
		if params != "" {
			return "TIME(" + params + ")"
		}

		return "TIME"
	case "json":
		return "JSON"
	case "binary", "varbinary", "blob", "tinyblob", "mediumblob", "longblob":
		return "BINARY"
	default:
		return "CHAR"
	}
}

// sqliteCastTarget follows SQLite's type affinity rules. Columns with NUMERIC
// affinity (date, datetime, boolean, ...) would turn text such as '2010-01-01'
// into the number 2010 under CAST, so text-like values are cast to TEXT instead.
func sqliteCastTarget(declared string, first patch.Value) string {
	if declared == "" {
		return sqliteTypeForValue(first)
	}

	upper := strings.ToUpper(declared)

	switch {
	case strings.Contains(upper, "INT"):
		return declared
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return declared
	case strings.Contains(upper, "BLOB"):
		return declared
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return declared
	}

	switch first.Kind() {
	case patch.KindString, patch.KindDate, patch.KindTimestamp, patch.KindTime, patch.KindUUID, patch.KindJSON:
		return "TEXT"
	}

	return declared
}

func sqliteTypeForValue(v patch.Value) string {
	switch v.Kind() {
	case patch.KindInt, patch.KindBool:
		return "INTEGER"
	case patch.KindFloat:
		return "REAL"
	case patch.KindDecimal:
		return "NUMERIC"
	case patch.KindBytes:
		return "BLOB"
	default:
		return "TEXT"
	}
}

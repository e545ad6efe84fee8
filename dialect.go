package batchupdate

import (
	"fmt"
	"strings"
)

// Dialect represents supported database dialects
// This type is shared across all packages
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
	DialectMariaDB  Dialect = "mariadb"
	DialectDuckDB   Dialect = "duckdb"
)

// ParseDialect accepts the dialect names used in config files and connection URLs.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "postgres", "postgresql", "pgx", "pg":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "mariadb":
		return DialectMariaDB, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "duckdb":
		return DialectDuckDB, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, name)
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectMySQL, DialectMariaDB:
		return "mysql"
	case DialectSQLite:
		return "sqlite3"
	case DialectDuckDB:
		return "duckdb"
	default:
		return "pgx"
	}
}

// IsMySQLFamily reports whether the dialect uses backtick identifiers and JOIN-style UPDATE.
func (d Dialect) IsMySQLFamily() bool {
	return d == DialectMySQL || d == DialectMariaDB
}

func (d Dialect) String() string {
	return string(d)
}

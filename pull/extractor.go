package pull

import (
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shibukawa/batchupdate"
)

// Extractor reads table definitions from a live database.
type Extractor interface {
	ExtractSchemas(ctx context.Context, db *sql.DB, config ExtractConfig) ([]batchupdate.DatabaseSchema, error)
	ExtractTables(ctx context.Context, db *sql.DB, schemaName string) ([]*batchupdate.TableInfo, error)
	ExtractColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) (map[string]*batchupdate.ColumnInfo, error)
	ExtractConstraints(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]batchupdate.ConstraintInfo, error)
	GetDatabaseInfo(ctx context.Context, db *sql.DB) (batchupdate.DatabaseInfo, error)
}

// NewExtractor creates a new extractor for the specified database type
func NewExtractor(databaseType string) (Extractor, error) {
	if databaseType == "" {
		return nil, ErrEmptyDatabaseType
	}

	dialect, err := batchupdate.ParseDialect(databaseType)
	if err != nil {
		return nil, ErrUnsupportedDatabase
	}

	switch dialect {
	case batchupdate.DialectPostgres:
		return NewPostgreSQLExtractor(), nil
	case batchupdate.DialectMySQL, batchupdate.DialectMariaDB:
		return NewMySQLExtractor(dialect), nil
	case batchupdate.DialectSQLite:
		return NewSQLiteExtractor(), nil
	case batchupdate.DialectDuckDB:
		return NewDuckDBExtractor(), nil
	default:
		return nil, ErrUnsupportedDatabase
	}
}

// ValidateExtractConfig validates the extraction configuration
func ValidateExtractConfig(config ExtractConfig) error {
	for _, includeSchema := range config.IncludeSchemas {
		if slices.Contains(config.ExcludeSchemas, includeSchema) {
			return ErrConflictingSchemaFilters
		}
	}

	for _, includeTable := range config.IncludeTables {
		if slices.Contains(config.ExcludeTables, includeTable) {
			return ErrConflictingTableFilters
		}
	}

	return nil
}

// ShouldIncludeSchema determines if a schema should be included based on filters
func ShouldIncludeSchema(schemaName string, includeSchemas, excludeSchemas []string) bool {
	if slices.Contains(excludeSchemas, schemaName) {
		return false
	}

	if len(includeSchemas) > 0 {
		return slices.Contains(includeSchemas, schemaName)
	}

	return true
}

// ShouldIncludeTable determines if a table should be included based on filters
func ShouldIncludeTable(tableName string, includeTables, excludeTables []string) bool {
	for _, excludeTable := range excludeTables {
		if MatchWildcard(excludeTable, tableName) {
			return false
		}
	}

	if len(includeTables) > 0 {
		for _, includeTable := range includeTables {
			if MatchWildcard(includeTable, tableName) {
				return true
			}
		}

		return false
	}

	return true
}

// MatchWildcard performs simple wildcard matching with * character
func MatchWildcard(pattern, text string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == text
	}

	matched, err := filepath.Match(pattern, text)
	if err != nil {
		return pattern == text
	}

	return matched
}

// BaseExtractor provides common functionality for all extractors
type BaseExtractor struct {
	typeMapper TypeMapper
}

// NewBaseExtractor creates a new base extractor
func NewBaseExtractor(databaseType string) (*BaseExtractor, error) {
	typeMapper, err := NewTypeMapper(databaseType)
	if err != nil {
		return nil, err
	}

	return &BaseExtractor{
		typeMapper: typeMapper,
	}, nil
}

// MapColumnType maps a declared database type to a normalized kind
func (e *BaseExtractor) MapColumnType(dbType string) string {
	return e.typeMapper.MapType(dbType)
}

// FilterSchemas filters schemas based on the configuration
func (e *BaseExtractor) FilterSchemas(schemas []string, config ExtractConfig) []string {
	var filtered []string

	for _, schema := range schemas {
		if ShouldIncludeSchema(schema, config.IncludeSchemas, config.ExcludeSchemas) {
			filtered = append(filtered, schema)
		}
	}

	return filtered
}

// FilterTables drops tables rejected by the include/exclude patterns.
func (e *BaseExtractor) FilterTables(tables []*batchupdate.TableInfo, config ExtractConfig) []*batchupdate.TableInfo {
	var filtered []*batchupdate.TableInfo

	for _, table := range tables {
		if ShouldIncludeTable(table.Name, config.IncludeTables, config.ExcludeTables) {
			filtered = append(filtered, table)
		}
	}

	return filtered
}

// primaryKeyConstraint builds the PRIMARY_KEY constraint from flagged columns, ordered by position.
func primaryKeyConstraint(tableName string, pk map[int]string) []batchupdate.ConstraintInfo {
	if len(pk) == 0 {
		return nil
	}

	order := make([]int, 0, len(pk))
	for i := range pk {
		order = append(order, i)
	}

	slices.Sort(order)

	columns := make([]string, len(order))
	for i, o := range order {
		columns[i] = pk[o]
	}

	return []batchupdate.ConstraintInfo{{
		Name:    tableName + "_pkey",
		Type:    batchupdate.ConstraintPrimaryKey,
		Columns: columns,
	}}
}

// ParseConstraintType converts information_schema constraint types to the stored form.
func ParseConstraintType(constraintType string) string {
	switch strings.ToUpper(strings.TrimSpace(constraintType)) {
	case "PRIMARY KEY":
		return batchupdate.ConstraintPrimaryKey
	case "FOREIGN KEY":
		return "FOREIGN_KEY"
	case "UNIQUE":
		return "UNIQUE"
	case "CHECK":
		return "CHECK"
	default:
		return constraintType
	}
}

// markPrimaryKey flags the columns named by the table's PRIMARY_KEY constraint.
func markPrimaryKey(table *batchupdate.TableInfo) {
	for _, c := range table.Constraints {
		if c.Type != batchupdate.ConstraintPrimaryKey {
			continue
		}

		for _, name := range c.Columns {
			if col, ok := table.Columns[name]; ok {
				col.IsPrimaryKey = true
			}
		}
	}
}

// Common SQL queries and patterns used across different database types
const (
	PostgreSQLSystemSchemas = "information_schema,pg_catalog,pg_toast"
	MySQLSystemSchemas      = "information_schema,mysql,performance_schema,sys"
	DuckDBSystemSchemas     = "information_schema,pg_catalog"
)

// GetDefaultExcludeSchemas returns default schemas to exclude for each database type
func GetDefaultExcludeSchemas(databaseType string) []string {
	dialect, err := batchupdate.ParseDialect(databaseType)
	if err != nil {
		return []string{}
	}

	switch dialect {
	case batchupdate.DialectPostgres:
		return strings.Split(PostgreSQLSystemSchemas, ",")
	case batchupdate.DialectMySQL, batchupdate.DialectMariaDB:
		return strings.Split(MySQLSystemSchemas, ",")
	case batchupdate.DialectDuckDB:
		return strings.Split(DuckDBSystemSchemas, ",")
	default:
		return []string{}
	}
}

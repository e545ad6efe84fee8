package pull

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (pgx)
	"github.com/shibukawa/batchupdate"
)

// PostgreSQLExtractor handles PostgreSQL-specific schema extraction
type PostgreSQLExtractor struct {
	*BaseExtractor
}

// NewPostgreSQLExtractor creates a new PostgreSQL extractor
func NewPostgreSQLExtractor() *PostgreSQLExtractor {
	baseExtractor, _ := NewBaseExtractor("postgres")

	return &PostgreSQLExtractor{
		BaseExtractor: baseExtractor,
	}
}

// ExtractSchemas extracts every non-system schema that passes the filters.
func (e *PostgreSQLExtractor) ExtractSchemas(ctx context.Context, db *sql.DB, config ExtractConfig) ([]batchupdate.DatabaseSchema, error) {
	dbInfo, err := e.GetDatabaseInfo(ctx, db)
	if err != nil {
		return nil, err
	}

	schemaNames, err := e.getSchemaNames(ctx, db)
	if err != nil {
		return nil, err
	}

	filteredSchemas := e.FilterSchemas(schemaNames, config)

	schemas := make([]batchupdate.DatabaseSchema, 0, len(filteredSchemas))
	for _, schemaName := range filteredSchemas {
		tables, err := e.ExtractTables(ctx, db, schemaName)
		if err != nil {
			return nil, err
		}

		schemas = append(schemas, batchupdate.DatabaseSchema{
			Name:         schemaName,
			Tables:       e.FilterTables(tables, config),
			DatabaseInfo: dbInfo,
		})
	}

	return schemas, nil
}

// ExtractTables extracts all tables from a specific schema
func (e *PostgreSQLExtractor) ExtractTables(ctx context.Context, db *sql.DB, schemaName string) ([]*batchupdate.TableInfo, error) {
	rows, err := db.QueryContext(ctx, e.BuildTablesQuery(), schemaName)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var tables []*batchupdate.TableInfo

	for rows.Next() {
		var (
			name    string
			comment sql.NullString
		)

		if err := rows.Scan(&name, &comment); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		tables = append(tables, &batchupdate.TableInfo{
			Name:    name,
			Schema:  schemaName,
			Comment: comment.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	for _, table := range tables {
		if table.Columns, err = e.ExtractColumns(ctx, db, schemaName, table.Name); err != nil {
			return nil, err
		}

		if table.Constraints, err = e.ExtractConstraints(ctx, db, schemaName, table.Name); err != nil {
			return nil, err
		}

		markPrimaryKey(table)
	}

	return tables, nil
}

// ExtractColumns extracts all columns from a specific table.
// DataType comes from format_type() so that it can be used verbatim in CAST.
func (e *PostgreSQLExtractor) ExtractColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) (map[string]*batchupdate.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, e.BuildColumnsQuery(), schemaName, tableName)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	columns := map[string]*batchupdate.ColumnInfo{}

	for rows.Next() {
		var (
			col                   batchupdate.ColumnInfo
			defaultValue, comment sql.NullString
		)

		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &defaultValue, &comment, &col.Position); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		col.Kind = e.MapColumnType(col.DataType)
		col.DefaultValue = e.ParseDefaultValue(defaultValue.String)
		col.Comment = comment.String
		columns[col.Name] = &col
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	return columns, nil
}

// ExtractConstraints extracts all constraints from a specific table
func (e *PostgreSQLExtractor) ExtractConstraints(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]batchupdate.ConstraintInfo, error) {
	rows, err := db.QueryContext(ctx, e.BuildConstraintsQuery(), schemaName, tableName)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var constraints []batchupdate.ConstraintInfo

	for rows.Next() {
		var (
			constraint batchupdate.ConstraintInfo
			columnsStr string
		)

		if err := rows.Scan(&constraint.Name, &constraint.Type, &columnsStr); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		constraint.Type = ParseConstraintType(constraint.Type)
		for col := range strings.SplitSeq(columnsStr, ",") {
			constraint.Columns = append(constraint.Columns, strings.TrimSpace(col))
		}

		constraints = append(constraints, constraint)
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	return constraints, nil
}

// GetDatabaseInfo extracts database information
func (e *PostgreSQLExtractor) GetDatabaseInfo(ctx context.Context, db *sql.DB) (batchupdate.DatabaseInfo, error) {
	info := batchupdate.DatabaseInfo{Type: string(batchupdate.DialectPostgres)}

	err := db.QueryRowContext(ctx, e.BuildDatabaseInfoQuery()).Scan(&info.Version, &info.Name, &info.Charset)
	if err != nil {
		return info, e.HandleDatabaseError(err)
	}

	return info, nil
}

func (e *PostgreSQLExtractor) getSchemaNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, e.BuildSchemasQuery())
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var schemas []string

	for rows.Next() {
		var schema string
		if err := rows.Scan(&schema); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		schemas = append(schemas, schema)
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	return schemas, nil
}

// Query builders

func (e *PostgreSQLExtractor) BuildSchemasQuery() string {
	return `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
		AND schema_name NOT LIKE 'pg_temp_%'
		AND schema_name NOT LIKE 'pg_toast_temp_%'
		ORDER BY schema_name
	`
}

func (e *PostgreSQLExtractor) BuildTablesQuery() string {
	return `
		SELECT
			c.relname,
			obj_description(c.oid, 'pg_class')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		AND c.relkind IN ('r', 'p')
		ORDER BY c.relname
	`
}

func (e *PostgreSQLExtractor) BuildColumnsQuery() string {
	return `
		SELECT
			a.attname,
			format_type(a.atttypid, a.atttypmod),
			NOT a.attnotnull,
			pg_get_expr(d.adbin, d.adrelid),
			col_description(c.oid, a.attnum),
			a.attnum
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE n.nspname = $1
		AND c.relname = $2
		AND a.attnum > 0
		AND NOT a.attisdropped
		ORDER BY a.attnum
	`
}

func (e *PostgreSQLExtractor) BuildConstraintsQuery() string {
	return `
		SELECT
			tc.constraint_name,
			tc.constraint_type,
			string_agg(kcu.column_name, ',' ORDER BY kcu.ordinal_position) AS columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = $1
		AND tc.table_name = $2
		GROUP BY tc.constraint_name, tc.constraint_type
		ORDER BY tc.constraint_name
	`
}

func (e *PostgreSQLExtractor) BuildDatabaseInfoQuery() string {
	return `SELECT version(), current_database(), pg_encoding_to_char(encoding) FROM pg_database WHERE datname = current_database()`
}

// ParseDefaultValue parses PostgreSQL default values
func (e *PostgreSQLExtractor) ParseDefaultValue(defaultValue string) string {
	value := strings.TrimSpace(defaultValue)
	if value == "" {
		return ""
	}

	if strings.HasPrefix(value, "nextval(") {
		return "AUTO_INCREMENT"
	}

	// 'value'::character varying
	if literal, _, found := strings.Cut(value, "::"); found {
		literal = strings.TrimSpace(literal)
		if len(literal) >= 2 && strings.HasPrefix(literal, "'") && strings.HasSuffix(literal, "'") {
			return strings.ReplaceAll(literal[1:len(literal)-1], "''", "'")
		}
	}

	if len(value) >= 2 && strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") {
		return strings.ReplaceAll(value[1:len(value)-1], "''", "'")
	}

	switch strings.ToLower(value) {
	case "true", "false":
		return strings.ToLower(value)
	case "null":
		return ""
	}

	return value
}

// HandleDatabaseError handles PostgreSQL-specific database errors
func (e *PostgreSQLExtractor) HandleDatabaseError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "connection refused"):
		return fmt.Errorf("PostgreSQL connection refused: %w: %w", ErrConnectionFailed, err)
	case strings.Contains(errStr, "authentication failed"):
		return fmt.Errorf("PostgreSQL authentication failed: %w: %w", ErrConnectionFailed, err)
	case strings.Contains(errStr, "relation") && strings.Contains(errStr, "does not exist"):
		return fmt.Errorf("%w: %w", batchupdate.ErrTableNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
}

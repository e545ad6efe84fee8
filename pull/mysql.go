package pull

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/shibukawa/batchupdate"
)

// MySQLExtractor handles MySQL and MariaDB schema extraction
type MySQLExtractor struct {
	*BaseExtractor
	dialect batchupdate.Dialect
}

// NewMySQLExtractor creates a new MySQL extractor. dialect is recorded in DatabaseInfo.Type.
func NewMySQLExtractor(dialect batchupdate.Dialect) *MySQLExtractor {
	if !dialect.IsMySQLFamily() {
		dialect = batchupdate.DialectMySQL
	}

	baseExtractor, _ := NewBaseExtractor(string(dialect))

	return &MySQLExtractor{
		BaseExtractor: baseExtractor,
		dialect:       dialect,
	}
}

// ExtractSchemas extracts the current database. MySQL has no schemas below the database level.
func (e *MySQLExtractor) ExtractSchemas(ctx context.Context, db *sql.DB, config ExtractConfig) ([]batchupdate.DatabaseSchema, error) {
	dbInfo, err := e.GetDatabaseInfo(ctx, db)
	if err != nil {
		return nil, err
	}

	tables, err := e.ExtractTables(ctx, db, dbInfo.Name)
	if err != nil {
		return nil, err
	}

	return []batchupdate.DatabaseSchema{{
		Name:         dbInfo.Name,
		Tables:       e.FilterTables(tables, config),
		DatabaseInfo: dbInfo,
	}}, nil
}

// ExtractTables extracts all tables from a specific schema
func (e *MySQLExtractor) ExtractTables(ctx context.Context, db *sql.DB, schemaName string) ([]*batchupdate.TableInfo, error) {
	rows, err := db.QueryContext(ctx, e.BuildTablesQuery(), schemaName)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var tables []*batchupdate.TableInfo

	for rows.Next() {
		var (
			tableName string
			comment   sql.NullString
		)

		if err := rows.Scan(&tableName, &comment); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		tables = append(tables, &batchupdate.TableInfo{
			Name:    tableName,
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
// COLUMN_TYPE keeps length, precision and the unsigned flag.
func (e *MySQLExtractor) ExtractColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) (map[string]*batchupdate.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, e.BuildColumnsQuery(), schemaName, tableName)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	columns := map[string]*batchupdate.ColumnInfo{}

	for rows.Next() {
		var (
			columnName, columnType, isNullable, columnKey string
			columnDefault, comment                        sql.NullString
			position                                      int
		)

		err := rows.Scan(&columnName, &columnType, &isNullable, &columnKey, &columnDefault, &comment, &position)
		if err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		columns[columnName] = &batchupdate.ColumnInfo{
			Name:         columnName,
			DataType:     columnType,
			Kind:         e.MapColumnType(columnType),
			Position:     position,
			Nullable:     isNullable == "YES",
			DefaultValue: e.ParseDefaultValue(columnDefault.String),
			Comment:      comment.String,
			IsPrimaryKey: columnKey == "PRI",
		}
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	return columns, nil
}

// ExtractConstraints extracts all constraints from a specific table
func (e *MySQLExtractor) ExtractConstraints(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]batchupdate.ConstraintInfo, error) {
	rows, err := db.QueryContext(ctx, e.BuildConstraintsQuery(), schemaName, tableName)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var (
		constraints []batchupdate.ConstraintInfo
		index       = map[string]int{}
	)

	for rows.Next() {
		var (
			constraintName, constraintType string
			columnName                     sql.NullString
		)

		if err := rows.Scan(&constraintName, &constraintType, &columnName); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		i, exists := index[constraintName]
		if !exists {
			i = len(constraints)
			index[constraintName] = i
			constraints = append(constraints, batchupdate.ConstraintInfo{
				Name:    constraintName,
				Type:    ParseConstraintType(constraintType),
				Columns: []string{},
			})
		}

		if columnName.Valid {
			constraints[i].Columns = append(constraints[i].Columns, columnName.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	return constraints, nil
}

// GetDatabaseInfo extracts database information
func (e *MySQLExtractor) GetDatabaseInfo(ctx context.Context, db *sql.DB) (batchupdate.DatabaseInfo, error) {
	info := batchupdate.DatabaseInfo{Type: string(e.dialect)}

	var dbName sql.NullString

	err := db.QueryRowContext(ctx, "SELECT VERSION(), DATABASE()").Scan(&info.Version, &dbName)
	if err != nil {
		return info, e.HandleDatabaseError(err)
	}

	info.Name = dbName.String

	if err := db.QueryRowContext(ctx, "SELECT @@character_set_database").Scan(&info.Charset); err != nil {
		info.Charset = "utf8mb4"
	}

	if strings.Contains(strings.ToLower(info.Version), "mariadb") {
		info.Type = string(batchupdate.DialectMariaDB)
	}

	return info, nil
}

// Query builders for MySQL

// BuildTablesQuery builds a query to get all tables in a schema
func (e *MySQLExtractor) BuildTablesQuery() string {
	return `
		SELECT
			TABLE_NAME,
			TABLE_COMMENT
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		  AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`
}

// BuildColumnsQuery builds a query to get all columns in a table
func (e *MySQLExtractor) BuildColumnsQuery() string {
	return `
		SELECT
			COLUMN_NAME,
			COLUMN_TYPE,
			IS_NULLABLE,
			COLUMN_KEY,
			COLUMN_DEFAULT,
			COLUMN_COMMENT,
			ORDINAL_POSITION
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ?
		  AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`
}

// BuildConstraintsQuery builds a query to get all constraints in a table
func (e *MySQLExtractor) BuildConstraintsQuery() string {
	return `
		SELECT
			tc.CONSTRAINT_NAME,
			tc.CONSTRAINT_TYPE,
			kcu.COLUMN_NAME
		FROM information_schema.TABLE_CONSTRAINTS tc
		LEFT JOIN information_schema.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
			AND tc.TABLE_NAME = kcu.TABLE_NAME
		WHERE tc.TABLE_SCHEMA = ?
		  AND tc.TABLE_NAME = ?
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`
}

// ParseDefaultValue parses MySQL default values
func (e *MySQLExtractor) ParseDefaultValue(defaultValue string) string {
	switch strings.ToUpper(defaultValue) {
	case "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP()", "NOW()":
		return "CURRENT_TIMESTAMP"
	case "NULL":
		return ""
	default:
		if len(defaultValue) >= 2 && strings.HasPrefix(defaultValue, "'") && strings.HasSuffix(defaultValue, "'") {
			return defaultValue[1 : len(defaultValue)-1]
		}

		return defaultValue
	}
}

// HandleDatabaseError converts MySQL-specific errors to standard errors
func (e *MySQLExtractor) HandleDatabaseError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "Access denied"):
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	case strings.Contains(errStr, "doesn't exist"):
		return fmt.Errorf("%w: %w", batchupdate.ErrTableNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
}

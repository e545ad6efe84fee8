package pull

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shibukawa/batchupdate"
)

// SQLiteExtractor handles SQLite-specific schema extraction
type SQLiteExtractor struct {
	*BaseExtractor
}

// NewSQLiteExtractor creates a new SQLite extractor
func NewSQLiteExtractor() *SQLiteExtractor {
	baseExtractor, _ := NewBaseExtractor("sqlite")

	return &SQLiteExtractor{
		BaseExtractor: baseExtractor,
	}
}

// ExtractSchemas extracts the main database. SQLite's "main" is stored as "global".
func (e *SQLiteExtractor) ExtractSchemas(ctx context.Context, db *sql.DB, config ExtractConfig) ([]batchupdate.DatabaseSchema, error) {
	dbInfo, err := e.GetDatabaseInfo(ctx, db)
	if err != nil {
		return nil, err
	}

	tables, err := e.ExtractTables(ctx, db, "main")
	if err != nil {
		return nil, err
	}

	return []batchupdate.DatabaseSchema{{
		Name:         "global",
		Tables:       e.FilterTables(tables, config),
		DatabaseInfo: dbInfo,
	}}, nil
}

// ExtractTables extracts all tables from a specific schema
func (e *SQLiteExtractor) ExtractTables(ctx context.Context, db *sql.DB, schemaName string) ([]*batchupdate.TableInfo, error) {
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var tables []*batchupdate.TableInfo

	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
		}

		tables = append(tables, &batchupdate.TableInfo{
			Name:   tableName,
			Schema: "global",
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	for _, table := range tables {
		if table.Columns, err = e.ExtractColumns(ctx, db, schemaName, table.Name); err != nil {
			return nil, err
		}

		if table.Constraints, err = e.ExtractConstraints(ctx, db, schemaName, table.Name); err != nil {
			return nil, err
		}
	}

	return tables, nil
}

type sqliteColumn struct {
	cid          int
	name         string
	dataType     string
	notNull      bool
	defaultValue sql.NullString
	pk           int // 1-based position in the primary key, 0 if not part of it
}

func (e *SQLiteExtractor) tableInfo(ctx context.Context, db *sql.DB, tableName string) ([]sqliteColumn, error) {
	rows, err := db.QueryContext(ctx, "SELECT cid, name, type, \"notnull\", dflt_value, pk FROM pragma_table_info(?)", tableName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var columns []sqliteColumn

	for rows.Next() {
		var c sqliteColumn
		if err := rows.Scan(&c.cid, &c.name, &c.dataType, &c.notNull, &c.defaultValue, &c.pk); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
		}

		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", batchupdate.ErrTableNotFound, tableName)
	}

	return columns, nil
}

// ExtractColumns extracts all columns from a specific table
func (e *SQLiteExtractor) ExtractColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) (map[string]*batchupdate.ColumnInfo, error) {
	info, err := e.tableInfo(ctx, db, tableName)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]*batchupdate.ColumnInfo, len(info))
	for _, c := range info {
		columns[c.name] = &batchupdate.ColumnInfo{
			Name:         c.name,
			DataType:     c.dataType,
			Kind:         e.MapColumnType(c.dataType),
			Position:     c.cid + 1,
			Nullable:     !c.notNull,
			DefaultValue: c.defaultValue.String,
			IsPrimaryKey: c.pk > 0,
		}
	}

	return columns, nil
}

// ExtractConstraints returns the primary key; other SQLite constraints are not reported by table_info.
func (e *SQLiteExtractor) ExtractConstraints(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]batchupdate.ConstraintInfo, error) {
	info, err := e.tableInfo(ctx, db, tableName)
	if err != nil {
		return nil, err
	}

	pk := map[int]string{}

	for _, c := range info {
		if c.pk > 0 {
			pk[c.pk] = c.name
		}
	}

	return primaryKeyConstraint(tableName, pk), nil
}

// GetDatabaseInfo extracts database information
func (e *SQLiteExtractor) GetDatabaseInfo(ctx context.Context, db *sql.DB) (batchupdate.DatabaseInfo, error) {
	var version string

	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return batchupdate.DatabaseInfo{}, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	return batchupdate.DatabaseInfo{
		Type:    string(batchupdate.DialectSQLite),
		Version: version,
		Name:    "sqlite_database",
	}, nil
}

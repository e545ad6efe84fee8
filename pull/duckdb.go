package pull

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver
	"github.com/shibukawa/batchupdate"
)

// DuckDBExtractor reads schemas through DuckDB's duckdb_tables()/duckdb_columns() catalog functions.
type DuckDBExtractor struct {
	*BaseExtractor
}

// NewDuckDBExtractor creates a new DuckDB extractor
func NewDuckDBExtractor() *DuckDBExtractor {
	baseExtractor, _ := NewBaseExtractor("duckdb")

	return &DuckDBExtractor{
		BaseExtractor: baseExtractor,
	}
}

// ExtractSchemas extracts every schema of the current database that passes the filters.
func (e *DuckDBExtractor) ExtractSchemas(ctx context.Context, db *sql.DB, config ExtractConfig) ([]batchupdate.DatabaseSchema, error) {
	dbInfo, err := e.GetDatabaseInfo(ctx, db)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT schema_name
		FROM duckdb_tables()
		WHERE database_name = current_database()
		AND NOT internal
		ORDER BY schema_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	var schemas []batchupdate.DatabaseSchema

	for _, name := range e.FilterSchemas(names, config) {
		tables, err := e.ExtractTables(ctx, db, name)
		if err != nil {
			return nil, err
		}

		schemas = append(schemas, batchupdate.DatabaseSchema{
			Name:         name,
			Tables:       e.FilterTables(tables, config),
			DatabaseInfo: dbInfo,
		})
	}

	return schemas, nil
}

// ExtractTables extracts all tables from a specific schema
func (e *DuckDBExtractor) ExtractTables(ctx context.Context, db *sql.DB, schemaName string) ([]*batchupdate.TableInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name, comment
		FROM duckdb_tables()
		WHERE database_name = current_database()
		AND schema_name = ?
		AND NOT internal
		ORDER BY table_name`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var tables []*batchupdate.TableInfo

	for rows.Next() {
		var (
			name    string
			comment sql.NullString
		)

		if err := rows.Scan(&name, &comment); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
		}

		tables = append(tables, &batchupdate.TableInfo{Name: name, Schema: schemaName, Comment: comment.String})
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

		markPrimaryKey(table)
	}

	return tables, nil
}

// ExtractColumns extracts all columns from a specific table
func (e *DuckDBExtractor) ExtractColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) (map[string]*batchupdate.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default, comment, column_index
		FROM duckdb_columns()
		WHERE database_name = current_database()
		AND schema_name = ?
		AND table_name = ?
		ORDER BY column_index`, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	columns := map[string]*batchupdate.ColumnInfo{}

	for rows.Next() {
		var (
			col                   batchupdate.ColumnInfo
			defaultValue, comment sql.NullString
		)

		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &defaultValue, &comment, &col.Position); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
		}

		col.Kind = e.MapColumnType(col.DataType)
		col.DefaultValue = strings.Trim(defaultValue.String, "'")
		col.Comment = comment.String
		columns[col.Name] = &col
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", batchupdate.ErrTableNotFound, schemaName, tableName)
	}

	return columns, nil
}

// ExtractConstraints extracts primary key and unique constraints
func (e *DuckDBExtractor) ExtractConstraints(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]batchupdate.ConstraintInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT constraint_type, array_to_string(constraint_column_names, ',')
		FROM duckdb_constraints()
		WHERE database_name = current_database()
		AND schema_name = ?
		AND table_name = ?
		AND constraint_type IN ('PRIMARY KEY', 'UNIQUE')
		ORDER BY constraint_index`, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var constraints []batchupdate.ConstraintInfo

	for rows.Next() {
		var constraintType, columns string
		if err := rows.Scan(&constraintType, &columns); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
		}

		c := batchupdate.ConstraintInfo{
			Type:    ParseConstraintType(constraintType),
			Columns: strings.Split(columns, ","),
		}

		if c.Type == batchupdate.ConstraintPrimaryKey {
			c.Name = tableName + "_pkey"
		} else {
			c.Name = tableName + "_" + strings.Join(c.Columns, "_") + "_key"
		}

		constraints = append(constraints, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	return constraints, nil
}

// GetDatabaseInfo extracts database information
func (e *DuckDBExtractor) GetDatabaseInfo(ctx context.Context, db *sql.DB) (batchupdate.DatabaseInfo, error) {
	info := batchupdate.DatabaseInfo{Type: string(batchupdate.DialectDuckDB)}

	if err := db.QueryRowContext(ctx, "SELECT version(), current_database()").Scan(&info.Version, &info.Name); err != nil {
		return info, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	return info, nil
}

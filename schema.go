package batchupdate

import (
	"fmt"
	"slices"
	"sort"
)

// Normalized column types
const (
	TypeString   = "string"
	TypeInt      = "int"
	TypeFloat    = "float"
	TypeDecimal  = "decimal"
	TypeBool     = "bool"
	TypeDate     = "date"
	TypeTime     = "time"
	TypeDateTime = "datetime"
	TypeJSON     = "json"
	TypeUUID     = "uuid"
	TypeArray    = "array"
	TypeBinary   = "binary"
)

// ColumnInfo is a unified column definition used for casting and value conversion.
type ColumnInfo struct {
	Name         string `json:"name" yaml:"name"`                 // Column name
	DataType     string `json:"dataType" yaml:"dataType"`         // Declared database type, used as CAST target
	Kind         string `json:"kind" yaml:"kind"`                 // Normalized type (TypeString, TypeInt, ...)
	Position     int    `json:"position" yaml:"position"`         // Ordinal position in the table
	Nullable     bool   `json:"nullable" yaml:"nullable"`         // Is nullable
	DefaultValue string `json:"defaultValue" yaml:"defaultValue"` // Default value (optional)
	Comment      string `json:"comment" yaml:"comment"`           // Comment (optional)
	IsPrimaryKey bool   `json:"isPrimaryKey" yaml:"isPrimaryKey"` // Is primary key (optional)
}

// TableInfo is a unified table definition
type TableInfo struct {
	Name        string                 `json:"name" yaml:"name"`               // Table name
	Schema      string                 `json:"schema" yaml:"schema"`           // Schema name (optional)
	Columns     map[string]*ColumnInfo `json:"columns" yaml:"columns"`         // Columns by name
	Constraints []ConstraintInfo       `json:"constraints" yaml:"constraints"` // Constraints (optional)
	Comment     string                 `json:"comment" yaml:"comment"`         // Table comment (optional)
}

// DatabaseSchema is a unified database schema definition
type DatabaseSchema struct {
	Name         string       `json:"name" yaml:"name"`                 // Schema/database name
	Tables       []*TableInfo `json:"tables" yaml:"tables"`             // Tables
	DatabaseInfo DatabaseInfo `json:"databaseInfo" yaml:"databaseInfo"` // DB info
}

const ConstraintPrimaryKey = "PRIMARY_KEY"

type ConstraintInfo struct {
	Name    string   `json:"name" yaml:"name"`
	Type    string   `json:"type" yaml:"type"` // PRIMARY_KEY, FOREIGN_KEY, UNIQUE, CHECK
	Columns []string `json:"columns" yaml:"columns"`
}

type DatabaseInfo struct {
	Type    string `json:"type" yaml:"type"`
	Version string `json:"version" yaml:"version"`
	Name    string `json:"name" yaml:"name"`
	Charset string `json:"charset" yaml:"charset"`
}

// FindTable looks a table up by its name or by schema-qualified name.
func (s *DatabaseSchema) FindTable(name string) (*TableInfo, error) {
	for _, t := range s.Tables {
		if t.Name == name || t.QualifiedName() == name {
			return t, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
}

// QualifiedName returns schema.table, or the bare name when the schema is implicit.
func (t *TableInfo) QualifiedName() string {
	if t.Schema == "" || t.Schema == "public" || t.Schema == "main" || t.Schema == "global" {
		return t.Name
	}

	return t.Schema + "." + t.Name
}

// HasColumn reports whether the table defines the column.
func (t *TableInfo) HasColumn(name string) bool {
	_, ok := t.Columns[name]
	return ok
}

// Column returns the named column or ErrColumnNotFound.
func (t *TableInfo) Column(name string) (*ColumnInfo, error) {
	col, ok := t.Columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, t.Name, name)
	}

	return col, nil
}

// ColumnNames returns every column name in table order.
func (t *TableInfo) ColumnNames() []string {
	cols := make([]*ColumnInfo, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, c)
	}

	sort.Slice(cols, func(i, j int) bool {
		if cols[i].Position != cols[j].Position {
			return cols[i].Position < cols[j].Position
		}

		return cols[i].Name < cols[j].Name
	})

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	return names
}

// PrimaryKey returns the primary key columns in constraint order.
// Without a PRIMARY_KEY constraint the flagged columns are used in table order.
func (t *TableInfo) PrimaryKey() []string {
	for _, c := range t.Constraints {
		if c.Type == ConstraintPrimaryKey && len(c.Columns) > 0 {
			return slices.Clone(c.Columns)
		}
	}

	var keys []string

	for _, name := range t.ColumnNames() {
		if t.Columns[name].IsPrimaryKey {
			keys = append(keys, name)
		}
	}

	return keys
}

// ColumnTypes returns the declared type of every column, keyed by name.
func (t *TableInfo) ColumnTypes() map[string]string {
	types := make(map[string]string, len(t.Columns))
	for name, c := range t.Columns {
		types[name] = c.DataType
	}

	return types
}

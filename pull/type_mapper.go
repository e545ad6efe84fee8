package pull

import (
	"regexp"
	"strings"

	"github.com/shibukawa/batchupdate"
)

// TypeMapper maps a declared database type to a normalized kind (batchupdate.TypeInt, ...).
type TypeMapper interface {
	MapType(dbType string) string
}

// NewTypeMapper creates a new type mapper for the specified database type
func NewTypeMapper(databaseType string) (TypeMapper, error) {
	if databaseType == "" {
		return nil, ErrEmptyDatabaseType
	}

	dialect, err := batchupdate.ParseDialect(databaseType)
	if err != nil {
		return nil, ErrUnsupportedDatabase
	}

	switch dialect {
	case batchupdate.DialectPostgres:
		return NewPostgreSQLTypeMapper(), nil
	case batchupdate.DialectMySQL, batchupdate.DialectMariaDB:
		return NewMySQLTypeMapper(), nil
	case batchupdate.DialectSQLite:
		return NewSQLiteTypeMapper(), nil
	case batchupdate.DialectDuckDB:
		return NewDuckDBTypeMapper(), nil
	default:
		return nil, ErrUnsupportedDatabase
	}
}

// tableTypeMapper looks types up in a fixed table after stripping parameters.
type tableTypeMapper struct {
	typeMap map[string]string
}

func (m *tableTypeMapper) lookup(normalized string) (string, bool) {
	if strings.Contains(normalized, "(") {
		baseType := strings.TrimSpace(strings.Split(normalized, "(")[0])
		if mappedType, exists := m.typeMap[baseType]; exists {
			return mappedType, true
		}
	}

	mappedType, exists := m.typeMap[normalized]

	return mappedType, exists
}

// PostgreSQLTypeMapper handles PostgreSQL type mapping
type PostgreSQLTypeMapper struct {
	tableTypeMapper
}

// NewPostgreSQLTypeMapper creates a new PostgreSQL type mapper
func NewPostgreSQLTypeMapper() *PostgreSQLTypeMapper {
	return &PostgreSQLTypeMapper{tableTypeMapper{typeMap: map[string]string{
		// Integer types
		"integer":     batchupdate.TypeInt,
		"int":         batchupdate.TypeInt,
		"int4":        batchupdate.TypeInt,
		"bigint":      batchupdate.TypeInt,
		"int8":        batchupdate.TypeInt,
		"smallint":    batchupdate.TypeInt,
		"int2":        batchupdate.TypeInt,
		"serial":      batchupdate.TypeInt,
		"bigserial":   batchupdate.TypeInt,
		"smallserial": batchupdate.TypeInt,

		// String types
		"text":              batchupdate.TypeString,
		"varchar":           batchupdate.TypeString,
		"character varying": batchupdate.TypeString,
		"character":         batchupdate.TypeString,
		"char":              batchupdate.TypeString,
		"bpchar":            batchupdate.TypeString,
		"citext":            batchupdate.TypeString,

		// Exact numerics
		"numeric": batchupdate.TypeDecimal,
		"decimal": batchupdate.TypeDecimal,
		"money":   batchupdate.TypeDecimal,

		// Float types
		"real":             batchupdate.TypeFloat,
		"float4":           batchupdate.TypeFloat,
		"double precision": batchupdate.TypeFloat,
		"float8":           batchupdate.TypeFloat,
		"float":            batchupdate.TypeFloat,

		// Boolean types
		"boolean": batchupdate.TypeBool,
		"bool":    batchupdate.TypeBool,

		// Date/Time types
		"date":                        batchupdate.TypeDate,
		"time":                        batchupdate.TypeTime,
		"time with time zone":         batchupdate.TypeTime,
		"time without time zone":      batchupdate.TypeTime,
		"timetz":                      batchupdate.TypeTime,
		"timestamp":                   batchupdate.TypeDateTime,
		"timestamp with time zone":    batchupdate.TypeDateTime,
		"timestamp without time zone": batchupdate.TypeDateTime,
		"timestamptz":                 batchupdate.TypeDateTime,

		"json":  batchupdate.TypeJSON,
		"jsonb": batchupdate.TypeJSON,
		"bytea": batchupdate.TypeBinary,
		"uuid":  batchupdate.TypeUUID,
	}}}
}

var pgTypmod = regexp.MustCompile(`\([^)]*\)`)

// MapType maps a PostgreSQL type to a normalized kind
func (m *PostgreSQLTypeMapper) MapType(dbType string) string {
	normalized := strings.ToLower(strings.TrimSpace(dbType))

	if strings.HasSuffix(normalized, "[]") {
		return batchupdate.TypeArray
	}

	// format_type() puts the typmod in the middle: "timestamp(3) with time zone"
	normalized = strings.Join(strings.Fields(pgTypmod.ReplaceAllString(normalized, "")), " ")

	if mappedType, ok := m.lookup(normalized); ok {
		return mappedType
	}

	return batchupdate.TypeString
}

// MySQLTypeMapper handles MySQL and MariaDB type mapping
type MySQLTypeMapper struct {
	tableTypeMapper
}

// NewMySQLTypeMapper creates a new MySQL type mapper
func NewMySQLTypeMapper() *MySQLTypeMapper {
	return &MySQLTypeMapper{tableTypeMapper{typeMap: map[string]string{
		"int":       batchupdate.TypeInt,
		"integer":   batchupdate.TypeInt,
		"bigint":    batchupdate.TypeInt,
		"smallint":  batchupdate.TypeInt,
		"tinyint":   batchupdate.TypeInt,
		"mediumint": batchupdate.TypeInt,
		"year":      batchupdate.TypeInt,

		"varchar":    batchupdate.TypeString,
		"char":       batchupdate.TypeString,
		"text":       batchupdate.TypeString,
		"tinytext":   batchupdate.TypeString,
		"mediumtext": batchupdate.TypeString,
		"longtext":   batchupdate.TypeString,
		"enum":       batchupdate.TypeString,
		"set":        batchupdate.TypeString,

		"decimal": batchupdate.TypeDecimal,
		"numeric": batchupdate.TypeDecimal,

		"float":  batchupdate.TypeFloat,
		"double": batchupdate.TypeFloat,
		"real":   batchupdate.TypeFloat,

		"boolean": batchupdate.TypeBool,
		"bool":    batchupdate.TypeBool,

		"date":      batchupdate.TypeDate,
		"time":      batchupdate.TypeTime,
		"datetime":  batchupdate.TypeDateTime,
		"timestamp": batchupdate.TypeDateTime,

		"json": batchupdate.TypeJSON,

		"blob":       batchupdate.TypeBinary,
		"tinyblob":   batchupdate.TypeBinary,
		"mediumblob": batchupdate.TypeBinary,
		"longblob":   batchupdate.TypeBinary,
		"binary":     batchupdate.TypeBinary,
		"varbinary":  batchupdate.TypeBinary,
	}}}
}

var mysqlBoolean = regexp.MustCompile(`^tinyint\s*\(\s*1\s*\)`)

// MapType maps a MySQL type to a normalized kind
func (m *MySQLTypeMapper) MapType(dbType string) string {
	normalized := strings.ToLower(strings.TrimSpace(dbType))

	if mysqlBoolean.MatchString(normalized) {
		return batchupdate.TypeBool
	}

	if fields := strings.Fields(normalized); len(fields) > 1 {
		// "int unsigned", "double precision"
		if mappedType, ok := m.lookup(fields[0]); ok {
			return mappedType
		}
	}

	if mappedType, ok := m.lookup(normalized); ok {
		return mappedType
	}

	return batchupdate.TypeString
}

// SQLiteTypeMapper handles SQLite type mapping
type SQLiteTypeMapper struct {
	tableTypeMapper
}

// NewSQLiteTypeMapper creates a new SQLite type mapper
func NewSQLiteTypeMapper() *SQLiteTypeMapper {
	return &SQLiteTypeMapper{tableTypeMapper{typeMap: map[string]string{
		"integer":  batchupdate.TypeInt,
		"int":      batchupdate.TypeInt,
		"bigint":   batchupdate.TypeInt,
		"smallint": batchupdate.TypeInt,
		"tinyint":  batchupdate.TypeInt,

		"text":      batchupdate.TypeString,
		"varchar":   batchupdate.TypeString,
		"char":      batchupdate.TypeString,
		"character": batchupdate.TypeString,
		"clob":      batchupdate.TypeString,
		"nchar":     batchupdate.TypeString,
		"nvarchar":  batchupdate.TypeString,

		"real":   batchupdate.TypeFloat,
		"double": batchupdate.TypeFloat,
		"float":  batchupdate.TypeFloat,

		"numeric": batchupdate.TypeDecimal,
		"decimal": batchupdate.TypeDecimal,

		"boolean": batchupdate.TypeBool,
		"bool":    batchupdate.TypeBool,

		"date":      batchupdate.TypeDate,
		"time":      batchupdate.TypeTime,
		"datetime":  batchupdate.TypeDateTime,
		"timestamp": batchupdate.TypeDateTime,

		"json": batchupdate.TypeJSON,
		"uuid": batchupdate.TypeUUID,
		"blob": batchupdate.TypeBinary,
	}}}
}

// MapType maps a SQLite type to a normalized kind
func (m *SQLiteTypeMapper) MapType(dbType string) string {
	normalized := strings.ToLower(strings.TrimSpace(dbType))

	if normalized == "" {
		return batchupdate.TypeString
	}

	if mappedType, ok := m.lookup(normalized); ok {
		return mappedType
	}

	// "unsigned big int", "varying character(20)"
	for _, word := range strings.Fields(strings.Split(normalized, "(")[0]) {
		if mappedType, exists := m.typeMap[word]; exists {
			return mappedType
		}
	}

	return batchupdate.TypeString
}

// DuckDBTypeMapper handles DuckDB type mapping
type DuckDBTypeMapper struct {
	tableTypeMapper
}

// NewDuckDBTypeMapper creates a new DuckDB type mapper
func NewDuckDBTypeMapper() *DuckDBTypeMapper {
	return &DuckDBTypeMapper{tableTypeMapper{typeMap: map[string]string{
		"tinyint":   batchupdate.TypeInt,
		"smallint":  batchupdate.TypeInt,
		"integer":   batchupdate.TypeInt,
		"bigint":    batchupdate.TypeInt,
		"hugeint":   batchupdate.TypeInt,
		"utinyint":  batchupdate.TypeInt,
		"usmallint": batchupdate.TypeInt,
		"uinteger":  batchupdate.TypeInt,
		"ubigint":   batchupdate.TypeInt,

		"varchar": batchupdate.TypeString,
		"text":    batchupdate.TypeString,

		"decimal": batchupdate.TypeDecimal,
		"numeric": batchupdate.TypeDecimal,

		"float":  batchupdate.TypeFloat,
		"real":   batchupdate.TypeFloat,
		"double": batchupdate.TypeFloat,

		"boolean": batchupdate.TypeBool,

		"date":                     batchupdate.TypeDate,
		"time":                     batchupdate.TypeTime,
		"timestamp":                batchupdate.TypeDateTime,
		"timestamp with time zone": batchupdate.TypeDateTime,
		"timestamptz":              batchupdate.TypeDateTime,

		"json": batchupdate.TypeJSON,
		"uuid": batchupdate.TypeUUID,
		"blob": batchupdate.TypeBinary,
	}}}
}

// MapType maps a DuckDB type to a normalized kind
func (m *DuckDBTypeMapper) MapType(dbType string) string {
	normalized := strings.ToLower(strings.TrimSpace(dbType))

	if strings.HasSuffix(normalized, "[]") || strings.HasPrefix(normalized, "list") {
		return batchupdate.TypeArray
	}

	if mappedType, ok := m.lookup(normalized); ok {
		return mappedType
	}

	return batchupdate.TypeString
}

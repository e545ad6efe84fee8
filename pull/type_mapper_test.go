package pull

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/batchupdate"
)

func TestPostgreSQLTypeMapper(t *testing.T) {
	mapper := NewPostgreSQLTypeMapper()

	t.Run("MapBasicTypes", func(t *testing.T) {
		testCases := []struct {
			dbType       string
			expectedType string
		}{
			{"integer", batchupdate.TypeInt},
			{"bigint", batchupdate.TypeInt},
			{"smallint", batchupdate.TypeInt},
			{"character varying(255)", batchupdate.TypeString},
			{"character(5)", batchupdate.TypeString},
			{"text", batchupdate.TypeString},
			{"numeric(10,2)", batchupdate.TypeDecimal},
			{"real", batchupdate.TypeFloat},
			{"double precision", batchupdate.TypeFloat},
			{"boolean", batchupdate.TypeBool},
			{"date", batchupdate.TypeDate},
			{"time with time zone", batchupdate.TypeTime},
			{"timestamp(3) without time zone", batchupdate.TypeDateTime},
			{"timestamp with time zone", batchupdate.TypeDateTime},
			{"jsonb", batchupdate.TypeJSON},
			{"bytea", batchupdate.TypeBinary},
			{"uuid", batchupdate.TypeUUID},
		}

		for _, tc := range testCases {
			assert.Equal(t, tc.expectedType, mapper.MapType(tc.dbType), "Failed to map PostgreSQL type: %s", tc.dbType)
		}
	})

	t.Run("MapArrayTypes", func(t *testing.T) {
		for _, dbType := range []string{"integer[]", "text[]", "character varying(255)[]"} {
			assert.Equal(t, batchupdate.TypeArray, mapper.MapType(dbType), "Failed to map PostgreSQL array type: %s", dbType)
		}
	})

	t.Run("MapUnknownTypes", func(t *testing.T) {
		for _, dbType := range []string{"custom_enum", "point", "inet"} {
			assert.Equal(t, batchupdate.TypeString, mapper.MapType(dbType), "Unknown type should fallback to string: %s", dbType)
		}
	})
}

func TestMySQLTypeMapper(t *testing.T) {
	mapper := NewMySQLTypeMapper()

	testCases := []struct {
		dbType       string
		expectedType string
	}{
		{"int", batchupdate.TypeInt},
		{"int unsigned", batchupdate.TypeInt},
		{"bigint(20) unsigned", batchupdate.TypeInt},
		{"tinyint(1)", batchupdate.TypeBool},
		{"tinyint(4)", batchupdate.TypeInt},
		{"varchar(255)", batchupdate.TypeString},
		{"enum('a','b')", batchupdate.TypeString},
		{"decimal(10,2)", batchupdate.TypeDecimal},
		{"double", batchupdate.TypeFloat},
		{"datetime(6)", batchupdate.TypeDateTime},
		{"date", batchupdate.TypeDate},
		{"json", batchupdate.TypeJSON},
		{"varbinary(16)", batchupdate.TypeBinary},
		{"geometry", batchupdate.TypeString},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expectedType, mapper.MapType(tc.dbType), "Failed to map MySQL type: %s", tc.dbType)
	}
}

func TestSQLiteTypeMapper(t *testing.T) {
	mapper := NewSQLiteTypeMapper()

	testCases := []struct {
		dbType       string
		expectedType string
	}{
		{"INTEGER", batchupdate.TypeInt},
		{"unsigned big int", batchupdate.TypeInt},
		{"varchar(20)", batchupdate.TypeString},
		{"varying character(20)", batchupdate.TypeString},
		{"", batchupdate.TypeString},
		{"REAL", batchupdate.TypeFloat},
		{"decimal(10,5)", batchupdate.TypeDecimal},
		{"boolean", batchupdate.TypeBool},
		{"date", batchupdate.TypeDate},
		{"datetime", batchupdate.TypeDateTime},
		{"BLOB", batchupdate.TypeBinary},
		{"whatever", batchupdate.TypeString},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expectedType, mapper.MapType(tc.dbType), "Failed to map SQLite type: %q", tc.dbType)
	}
}

func TestDuckDBTypeMapper(t *testing.T) {
	mapper := NewDuckDBTypeMapper()

	testCases := []struct {
		dbType       string
		expectedType string
	}{
		{"INTEGER", batchupdate.TypeInt},
		{"UBIGINT", batchupdate.TypeInt},
		{"VARCHAR", batchupdate.TypeString},
		{"DECIMAL(18,3)", batchupdate.TypeDecimal},
		{"DOUBLE", batchupdate.TypeFloat},
		{"BOOLEAN", batchupdate.TypeBool},
		{"TIMESTAMP WITH TIME ZONE", batchupdate.TypeDateTime},
		{"UUID", batchupdate.TypeUUID},
		{"BLOB", batchupdate.TypeBinary},
		{"INTEGER[]", batchupdate.TypeArray},
		{"STRUCT(a INTEGER)", batchupdate.TypeString},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expectedType, mapper.MapType(tc.dbType), "Failed to map DuckDB type: %s", tc.dbType)
	}
}

func TestNewTypeMapper(t *testing.T) {
	_, err := NewTypeMapper("")
	assert.IsError(t, err, ErrEmptyDatabaseType)

	_, err = NewTypeMapper("oracle")
	assert.IsError(t, err, ErrUnsupportedDatabase)

	mapper, err := NewTypeMapper("mariadb")
	assert.NoError(t, err)
	assert.Equal(t, batchupdate.TypeBool, mapper.MapType("tinyint(1)"))
}

package pull

import (
	"database/sql"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/batchupdate"
)

func TestDuckDBExtractor(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE cats (
			id INTEGER PRIMARY KEY,
			name VARCHAR NOT NULL,
			price DECIMAL(10, 2),
			tags VARCHAR[],
			token UUID
		)`)
	assert.NoError(t, err)

	schemas, err := NewDuckDBExtractor().ExtractSchemas(t.Context(), db, ExtractConfig{
		ExcludeSchemas: GetDefaultExcludeSchemas("duckdb"),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(schemas))
	assert.Equal(t, "main", schemas[0].Name)
	assert.Equal(t, "duckdb", schemas[0].DatabaseInfo.Type)

	cats, err := schemas[0].FindTable("cats")
	assert.NoError(t, err)
	assert.Equal(t, "cats", cats.QualifiedName())
	assert.Equal(t, []string{"id", "name", "price", "tags", "token"}, cats.ColumnNames())
	assert.Equal(t, []string{"id"}, cats.PrimaryKey())
	assert.True(t, cats.Columns["id"].IsPrimaryKey)
	assert.False(t, cats.Columns["name"].Nullable)
	assert.Equal(t, "DECIMAL(10,2)", cats.Columns["price"].DataType)
	assert.Equal(t, batchupdate.TypeDecimal, cats.Columns["price"].Kind)
	assert.Equal(t, batchupdate.TypeArray, cats.Columns["tags"].Kind)
	assert.Equal(t, batchupdate.TypeUUID, cats.Columns["token"].Kind)
}

package pull

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/batchupdate"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgreSQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	assert.NoError(t, err)

	defer func() {
		assert.NoError(t, postgresContainer.Terminate(ctx))
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	assert.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	assert.NoError(t, err)

	defer db.Close()

	_, err = db.ExecContext(ctx, `
		CREATE SCHEMA sales;
		CREATE TABLE cats (
			id serial PRIMARY KEY,
			name varchar(100) NOT NULL,
			birthday date,
			price numeric(10,2) DEFAULT 0,
			updated_at timestamp(6) without time zone
		);
		COMMENT ON TABLE cats IS 'Cats';
		COMMENT ON COLUMN cats.name IS 'Display name';
		CREATE TABLE sales.line_items (
			order_id bigint,
			line_no integer,
			quantity integer NOT NULL,
			PRIMARY KEY (order_id, line_no)
		);
	`)
	assert.NoError(t, err)

	t.Run("ExtractSchemas", func(t *testing.T) {
		schemas, err := NewPostgreSQLExtractor().ExtractSchemas(ctx, db, ExtractConfig{
			ExcludeSchemas: GetDefaultExcludeSchemas("postgres"),
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, len(schemas))
		assert.Equal(t, "public", schemas[0].Name)
		assert.Equal(t, "sales", schemas[1].Name)
		assert.Equal(t, "testdb", schemas[0].DatabaseInfo.Name)

		cats, err := schemas[0].FindTable("cats")
		assert.NoError(t, err)
		assert.Equal(t, "Cats", cats.Comment)
		assert.Equal(t, []string{"id", "name", "birthday", "price", "updated_at"}, cats.ColumnNames())
		assert.Equal(t, map[string]string{
			"id":         "integer",
			"name":       "character varying(100)",
			"birthday":   "date",
			"price":      "numeric(10,2)",
			"updated_at": "timestamp(6) without time zone",
		}, cats.ColumnTypes())
		assert.Equal(t, "Display name", cats.Columns["name"].Comment)
		assert.Equal(t, "AUTO_INCREMENT", cats.Columns["id"].DefaultValue)
		assert.Equal(t, batchupdate.TypeDecimal, cats.Columns["price"].Kind)
		assert.Equal(t, []string{"id"}, cats.PrimaryKey())

		items, err := schemas[1].FindTable("sales.line_items")
		assert.NoError(t, err)
		assert.Equal(t, []string{"order_id", "line_no"}, items.PrimaryKey())
	})

	t.Run("FullPullOperation", func(t *testing.T) {
		tempDir := t.TempDir()

		result, err := ExecutePull(ctx, PullConfig{
			DatabaseURL:    connStr,
			OutputPath:     tempDir,
			SchemaAware:    true,
			IncludeSchemas: []string{"public"},
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, len(result.Schemas))

		loaded, err := LoadDatabaseSchemaFromDir(tempDir)
		assert.NoError(t, err)

		cats, err := loaded.FindTable("cats")
		assert.NoError(t, err)
		assert.Equal(t, "character varying(100)", cats.Columns["name"].DataType)
	})
}

func TestMySQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()

	mysqlContainer, err := mysql.Run(ctx,
		"mysql:8.4",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("testuser"),
		mysql.WithPassword("testpass"),
	)
	assert.NoError(t, err)

	defer func() {
		assert.NoError(t, mysqlContainer.Terminate(ctx))
	}()

	host, err := mysqlContainer.Host(ctx)
	assert.NoError(t, err)

	port, err := mysqlContainer.MappedPort(ctx, "3306/tcp")
	assert.NoError(t, err)

	databaseURL := fmt.Sprintf("mysql://testuser:testpass@%s:%s/testdb", host, port.Port())

	db, err := NewDatabaseConnector().Connect(ctx, databaseURL)
	assert.NoError(t, err)

	defer db.Close()

	_, err = db.ExecContext(ctx, `
		CREATE TABLE cats (
			id int unsigned NOT NULL AUTO_INCREMENT PRIMARY KEY,
			name varchar(100) NOT NULL COMMENT 'Display name',
			active tinyint(1) NOT NULL DEFAULT 1,
			price decimal(10,2) DEFAULT NULL,
			updated_at datetime(6) DEFAULT CURRENT_TIMESTAMP(6)
		) COMMENT='Cats'`)
	assert.NoError(t, err)

	schemas, err := NewMySQLExtractor(batchupdate.DialectMySQL).ExtractSchemas(ctx, db, ExtractConfig{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(schemas))
	assert.Equal(t, "testdb", schemas[0].Name)

	cats, err := schemas[0].FindTable("cats")
	assert.NoError(t, err)
	assert.Equal(t, "Cats", cats.Comment)
	assert.Equal(t, []string{"id", "name", "active", "price", "updated_at"}, cats.ColumnNames())
	assert.Equal(t, "int unsigned", cats.Columns["id"].DataType)
	assert.Equal(t, batchupdate.TypeBool, cats.Columns["active"].Kind)
	assert.Equal(t, batchupdate.TypeDecimal, cats.Columns["price"].Kind)
	assert.Equal(t, "Display name", cats.Columns["name"].Comment)
	assert.Equal(t, []string{"id"}, cats.PrimaryKey())
}

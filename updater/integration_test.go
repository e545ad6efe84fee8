package updater

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/pull"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func extractTable(t *testing.T, db *sql.DB, dialect batchupdate.Dialect, name string) *batchupdate.TableInfo {
	t.Helper()

	extractor, err := pull.NewExtractor(string(dialect))
	require.NoError(t, err)

	schemas, err := extractor.ExtractSchemas(t.Context(), db, pull.ExtractConfig{})
	require.NoError(t, err)

	for _, schema := range schemas {
		if table, err := schema.FindTable(name); err == nil {
			return table
		}
	}

	require.FailNow(t, "table not found", name)

	return nil
}

func TestPostgreSQLRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()

	ctr, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := pull.NewDatabaseConnector().Connect(ctx, connStr)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `
		CREATE TABLE cats (
			id integer PRIMARY KEY,
			name varchar(100) NOT NULL,
			birthday date,
			price numeric(10,2),
			updated_at timestamp(6) without time zone
		);
		INSERT INTO cats (id, name, birthday, price) VALUES
			(1, 'Felix', '2010-01-01', 10),
			(2, 'Garfield', '2011-02-02', 20),
			(3, 'Tom', '2012-03-03', 30);
	`)
	require.NoError(t, err)

	u, err := New(db, extractTable(t, db, batchupdate.DialectPostgres, "cats"),
		WithDialect(batchupdate.DialectPostgres),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)

	felix := MustMapRecord(map[string]any{"id": 1, "name": "Felix"})
	felix.MustSet("name", `O'Sullivan \ "the cat"`).MustSet("price", decimal.RequireFromString("12.50"))

	garfield := MustMapRecord(map[string]any{"id": 2, "name": "Garfield"})
	garfield.MustSet("birthday", "2020-02-29")

	ghost := MustMapRecord(map[string]any{"id": 99, "name": "Ghost"})
	ghost.MustSet("name", "Boo")

	n, err := u.Update(ctx, []Record{felix, garfield, ghost}, UpdateOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	var (
		name      string
		price     decimal.Decimal
		birthday  time.Time
		updatedAt time.Time
	)

	require.NoError(t, db.QueryRowContext(ctx, "SELECT name, price, updated_at FROM cats WHERE id = 1").Scan(&name, &price, &updatedAt))
	require.Equal(t, `O'Sullivan \ "the cat"`, name)
	require.True(t, price.Equal(decimal.RequireFromString("12.5")), price.String())
	require.True(t, updatedAt.Equal(fixedNow), updatedAt.String())

	require.NoError(t, db.QueryRowContext(ctx, "SELECT birthday FROM cats WHERE id = 2").Scan(&birthday))
	require.Equal(t, "2020-02-29", birthday.Format(time.DateOnly))

	var untouched sql.NullTime
	require.NoError(t, db.QueryRowContext(ctx, "SELECT updated_at FROM cats WHERE id = 3").Scan(&untouched))
	require.False(t, untouched.Valid)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cats").Scan(&count))
	require.Equal(t, 3, count)
}

func TestMySQLRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()

	ctr, err := mysql.Run(ctx,
		"mysql:8.4",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("testuser"),
		mysql.WithPassword("testpass"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)

	port, err := ctr.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	db, err := pull.NewDatabaseConnector().Connect(ctx, fmt.Sprintf("mysql://testuser:testpass@%s:%s/testdb", host, port.Port()))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `
		CREATE TABLE cats (
			id int NOT NULL PRIMARY KEY,
			name varchar(100) NOT NULL,
			price decimal(10,2) DEFAULT NULL,
			updated_at datetime(6) DEFAULT NULL
		)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO cats (id, name, price) VALUES (1, 'Felix', 10), (2, 'Garfield', 20)`)
	require.NoError(t, err)

	u, err := New(db, extractTable(t, db, batchupdate.DialectMySQL, "cats"),
		WithDialect(batchupdate.DialectMySQL),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)

	felix := MustMapRecord(map[string]any{"id": 1, "name": "Felix"})
	felix.MustSet("name", `C:\cats\felix's`)

	garfield := MustMapRecord(map[string]any{"id": 2, "name": "Garfield"})
	garfield.MustSet("name", "Garfield II").MustSet("price", decimal.RequireFromString("7.25"))

	n, err := u.Update(ctx, []Record{felix, garfield}, UpdateOptions{BatchSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	var (
		name      string
		price     decimal.Decimal
		updatedAt time.Time
	)

	require.NoError(t, db.QueryRowContext(ctx, "SELECT name, updated_at FROM cats WHERE id = 1").Scan(&name, &updatedAt))
	require.Equal(t, `C:\cats\felix's`, name)
	require.True(t, updatedAt.Equal(fixedNow), updatedAt.String())

	require.NoError(t, db.QueryRowContext(ctx, "SELECT name, price FROM cats WHERE id = 2").Scan(&name, &price))
	require.Equal(t, "Garfield II", name)
	require.True(t, price.Equal(decimal.RequireFromString("7.25")), price.String())
}

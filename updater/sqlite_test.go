package updater

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/pull"
)

const catsDDL = `
CREATE TABLE cats (
	id INTEGER PRIMARY KEY,
	name varchar NOT NULL,
	birthday date,
	updated_at datetime
);
INSERT INTO cats (id, name, birthday, updated_at) VALUES
	(1, 'Felix', '2010-01-01', '2020-01-01 00:00:00'),
	(2, 'Garfield', '2011-02-02', '2020-01-01 00:00:00');
`

// countingExecutor counts statements that reach the database.
type countingExecutor struct {
	db      *sql.DB
	queries []string
}

func (c *countingExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.queries = append(c.queries, query)
	return c.db.ExecContext(ctx, query, args...)
}

type storedCat struct {
	name      string
	birthday  time.Time
	updatedAt time.Time
}

func setupCats(t *testing.T) (*sql.DB, *countingExecutor, *Updater) {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "cats.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(catsDDL)
	assert.NoError(t, err)

	tables, err := pull.NewSQLiteExtractor().ExtractTables(t.Context(), db, "global")
	assert.NoError(t, err)

	schema := &batchupdate.DatabaseSchema{Tables: tables}
	cats, err := schema.FindTable("cats")
	assert.NoError(t, err)

	exec := &countingExecutor{db: db}

	u, err := New(exec, cats,
		WithDialect(batchupdate.DialectSQLite),
		WithClock(func() time.Time { return fixedNow }),
	)
	assert.NoError(t, err)

	return db, exec, u
}

func loadCat(t *testing.T, db *sql.DB, id int) storedCat {
	t.Helper()

	var c storedCat

	err := db.QueryRowContext(t.Context(), "SELECT name, birthday, updated_at FROM cats WHERE id = ?", id).
		Scan(&c.name, &c.birthday, &c.updatedAt)
	assert.NoError(t, err)

	return c
}

func loadRecord(t *testing.T, db *sql.DB, id int) *MapRecord {
	t.Helper()

	c := loadCat(t, db, id)

	return MustMapRecord(map[string]any{"id": id, "name": c.name, "birthday": c.birthday, "updated_at": c.updatedAt})
}

func countCats(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	assert.NoError(t, db.QueryRowContext(t.Context(), "SELECT COUNT(*) FROM cats").Scan(&n))

	return n
}

func TestSQLiteUpdatesChangedRows(t *testing.T) {
	db, exec, u := setupCats(t)

	felix := loadRecord(t, db, 1)
	garfield := loadRecord(t, db, 2)

	felix.MustSet("name", "can I haz cheeseburger pls")
	garfield.MustSet("name", "O'Sullivans cuba libre").MustSet("birthday", "2024-01-01")

	n, err := u.Update(t.Context(), []Record{felix, garfield}, UpdateOptions{Columns: AllColumns})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, len(exec.queries))
	assert.Contains(t, exec.queries[0], `UPDATE "cats" SET "birthday" = "batch_updates"."birthday", "name" = "batch_updates"."name", "updated_at" = "batch_updates"."updated_at" FROM "batch_updates"`)
	assert.Contains(t, exec.queries[1], `UPDATE "cats" SET "name" = "batch_updates"."name", "updated_at" = "batch_updates"."updated_at" FROM "batch_updates"`)

	got1 := loadCat(t, db, 1)
	assert.Equal(t, "can I haz cheeseburger pls", got1.name)
	assert.Equal(t, "2010-01-01", got1.birthday.Format(time.DateOnly))
	assert.True(t, got1.updatedAt.Equal(fixedNow))

	got2 := loadCat(t, db, 2)
	assert.Equal(t, "O'Sullivans cuba libre", got2.name)
	assert.Equal(t, "2024-01-01", got2.birthday.Format(time.DateOnly))
}

func TestSQLiteAllowListLeavesOtherColumns(t *testing.T) {
	db, _, u := setupCats(t)

	felix := loadRecord(t, db, 1)
	garfield := loadRecord(t, db, 2)

	felix.MustSet("name", "can I haz cheeseburger pls")
	garfield.MustSet("name", "O'Sullivans cuba libre").MustSet("birthday", "2024-01-01")

	_, err := u.Update(t.Context(), []Record{felix, garfield}, UpdateOptions{Columns: []string{"name"}})
	assert.NoError(t, err)

	assert.Equal(t, "can I haz cheeseburger pls", loadCat(t, db, 1).name)

	got2 := loadCat(t, db, 2)
	assert.Equal(t, "O'Sullivans cuba libre", got2.name)
	assert.Equal(t, "2011-02-02", got2.birthday.Format(time.DateOnly))
}

func TestSQLiteKeepsTextVerbatim(t *testing.T) {
	for _, name := range []string{
		"can   I    haz   cheeseburger    pls",
		`La Rose Blanche \`,
		"tab\tand\nnewline",
		"'quoted' \"twice\"",
		"ねこ",
	} {
		t.Run(name, func(t *testing.T) {
			db, _, u := setupCats(t)

			felix := loadRecord(t, db, 1)
			felix.MustSet("name", name)

			n, err := u.Update(t.Context(), []Record{felix}, UpdateOptions{Columns: AllColumns})
			assert.NoError(t, err)
			assert.Equal(t, int64(1), n)
			assert.Equal(t, name, loadCat(t, db, 1).name)
		})
	}
}

func TestSQLiteDoesNotInsertMissingRows(t *testing.T) {
	db, exec, u := setupCats(t)

	ghost := MustMapRecord(map[string]any{"id": 3, "name": "Felix"}).MustSet("name", "ghost")

	n, err := u.Update(t.Context(), []Record{ghost}, UpdateOptions{Columns: AllColumns})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 1, len(exec.queries))
	assert.Contains(t, exec.queries[0], "UPDATE")
	assert.Equal(t, 2, countCats(t, db))

	var exists int
	assert.NoError(t, db.QueryRowContext(t.Context(), "SELECT COUNT(*) FROM cats WHERE id = 3").Scan(&exists))
	assert.Equal(t, 0, exists)
}

func TestSQLiteNoQueriesWhenNothingChanged(t *testing.T) {
	db, exec, u := setupCats(t)

	felix := loadRecord(t, db, 1)
	before := loadCat(t, db, 1)

	n, err := u.Update(t.Context(), []Record{felix}, UpdateOptions{Columns: AllColumns})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)

	felix.MustSet("name", "can I haz cheeseburger pls")

	n, err = u.Update(t.Context(), []Record{felix}, UpdateOptions{Columns: []string{"birthday"}})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.Equal(t, 0, len(exec.queries))

	after := loadCat(t, db, 1)
	assert.Equal(t, before.name, after.name)
	assert.True(t, before.updatedAt.Equal(after.updatedAt))
}

func TestSQLiteStructRecordsInTransaction(t *testing.T) {
	db, _, u := setupCats(t)

	tx, err := db.BeginTx(t.Context(), nil)
	assert.NoError(t, err)

	txUpdater, err := New(tx, u.Table(), WithDialect(batchupdate.DialectSQLite), WithClock(func() time.Time { return fixedNow }))
	assert.NoError(t, err)

	felix := &cat{ID: 1, Name: "Felix", Lives: 9}
	garfield := &cat{ID: 2, Name: "Garfield", Lives: 9}

	records, err := StructRecords([]*cat{felix, garfield})
	assert.NoError(t, err)

	felix.Name = "Tom"
	garfield.Name = "Jerry"

	n, err := txUpdater.Update(t.Context(), records, UpdateOptions{Columns: []string{"name"}})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, tx.Commit())

	assert.Equal(t, "Tom", loadCat(t, db, 1).name)
	assert.Equal(t, "Jerry", loadCat(t, db, 2).name)
	assert.True(t, loadCat(t, db, 2).updatedAt.Equal(fixedNow))
}

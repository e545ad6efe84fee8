package builder

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
	"github.com/shibukawa/batchupdate/testhelper"
)

var catTypes = ColumnTypes{
	"id":       "INTEGER",
	"name":     "varchar",
	"birthday": "date",
}

func cat(id int64, name string) *patch.Tuple {
	return patch.NewTuple().Set("id", patch.Int(id)).Set("name", patch.String(name))
}

func TestBuild_Scenarios(t *testing.T) {
	testCases := []struct {
		name      string
		tuples    []*patch.Tuple
		keys      patch.KeySpec
		batchSize int
		expected  []string
	}{
		{
			name:      "all tuples share columns",
			tuples:    []*patch.Tuple{cat(1, "foo"), cat(2, "bar")},
			batchSize: 100,
			expected: []string{`
				WITH "batch_updates" (id, name) AS (
				  VALUES (CAST(1 AS INTEGER), CAST('foo' AS varchar)), (2, 'bar')
				)
				UPDATE "cats"
				SET
				  "name" = "batch_updates"."name"
				FROM "batch_updates"
				WHERE
				  "cats"."id" = "batch_updates"."id"`,
			},
		},
		{
			name: "different columns produce one statement per signature",
			tuples: []*patch.Tuple{
				cat(1, "foo"),
				cat(2, "bar").Set("birthday", patch.DateOf(2010, time.January, 1)),
			},
			batchSize: 100,
			expected: []string{`
				WITH "batch_updates" (birthday, id, name) AS (
				  VALUES (CAST('2010-01-01' AS date), CAST(2 AS INTEGER), CAST('bar' AS varchar))
				)
				UPDATE "cats"
				SET
				  "birthday" = "batch_updates"."birthday",
				  "name" = "batch_updates"."name"
				FROM "batch_updates"
				WHERE
				  "cats"."id" = "batch_updates"."id"`, `
				WITH "batch_updates" (id, name) AS (
				  VALUES (CAST(1 AS INTEGER), CAST('foo' AS varchar))
				)
				UPDATE "cats"
				SET
				  "name" = "batch_updates"."name"
				FROM "batch_updates"
				WHERE
				  "cats"."id" = "batch_updates"."id"`,
			},
		},
		{
			name: "several key columns",
			tuples: []*patch.Tuple{
				cat(1, "Felix").Set("birthday", patch.DateOf(2019, time.April, 4)),
			},
			keys:      patch.Keys("id", "name"),
			batchSize: 100,
			expected: []string{`
				WITH "batch_updates" (birthday, id, name) AS (
				  VALUES (CAST('2019-04-04' AS date), CAST(1 AS INTEGER), CAST('Felix' AS varchar))
				)
				UPDATE "cats"
				SET
				  "birthday" = "batch_updates"."birthday"
				FROM "batch_updates"
				WHERE
				    "cats"."id" = "batch_updates"."id"
				AND "cats"."name" = "batch_updates"."name"`,
			},
		},
		{
			name:      "custom batch size",
			tuples:    []*patch.Tuple{cat(1, "foo"), cat(2, "bar")},
			batchSize: 1,
			expected: []string{`
				WITH "batch_updates" (id, name) AS (
				  VALUES (CAST(1 AS INTEGER), CAST('foo' AS varchar))
				)
				UPDATE "cats"
				SET
				  "name" = "batch_updates"."name"
				FROM "batch_updates"
				WHERE
				  "cats"."id" = "batch_updates"."id"`, `
				WITH "batch_updates" (id, name) AS (
				  VALUES (CAST(2 AS INTEGER), CAST('bar' AS varchar))
				)
				UPDATE "cats"
				SET
				  "name" = "batch_updates"."name"
				FROM "batch_updates"
				WHERE
				  "cats"."id" = "batch_updates"."id"`,
			},
		},
		{
			name:      "key columns only",
			tuples:    []*patch.Tuple{patch.NewTuple().Set("id", patch.Int(1))},
			batchSize: 100,
			expected:  nil,
		},
		{
			name:      "empty input",
			tuples:    nil,
			batchSize: 100,
			expected:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			statements, err := Build(tc.tuples, BuildOptions{
				Table:     "cats",
				Keys:      tc.keys,
				BatchSize: tc.batchSize,
				Types:     catTypes,
			})
			assert.NoError(t, err)

			var actual []string
			for _, s := range statements {
				actual = append(actual, s.String())
			}

			var expected []string
			for _, e := range tc.expected {
				expected = append(expected, testhelper.Squish(e))
			}

			assert.Equal(t, expected, actual)
		})
	}
}

func TestBuild_IsAllOrNothing(t *testing.T) {
	tuples := []*patch.Tuple{
		cat(1, "foo"),
		cat(2, "bar").Set("color", patch.String("black")),
	}

	statements, err := Build(tuples, BuildOptions{Table: "cats", BatchSize: 100, Types: catTypes})
	assert.IsError(t, err, batchupdate.ErrSchemaMismatch)
	assert.Zero(t, statements)
	assert.Contains(t, err.Error(), `"color"`)
}

func TestBuild_InvalidArguments(t *testing.T) {
	_, err := Build([]*patch.Tuple{cat(1, "foo")}, BuildOptions{Table: "cats", BatchSize: 0, Types: catTypes})
	assert.IsError(t, err, batchupdate.ErrInvalidArgument)

	_, err = Build([]*patch.Tuple{cat(1, "foo")}, BuildOptions{Table: "cats", Keys: patch.Keys(), BatchSize: 10, Types: catTypes})
	assert.IsError(t, err, batchupdate.ErrInvalidArgument)
}

func TestBuild_DefaultsToIDKey(t *testing.T) {
	statements, err := Build([]*patch.Tuple{cat(1, "foo")}, BuildOptions{Table: "cats", BatchSize: 10, Types: catTypes})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(statements))
	assert.Contains(t, statements[0].String(), `WHERE "cats"."id" = "batch_updates"."id"`)
}

func TestBuild_Deterministic(t *testing.T) {
	tuples := []*patch.Tuple{
		cat(3, "c").Set("birthday", patch.Null()),
		cat(1, "a"),
		patch.NewTuple().Set("id", patch.Int(5)).Set("birthday", patch.DateOf(2020, 2, 2)),
		cat(2, "b"),
		cat(4, "d").Set("birthday", patch.DateOf(2021, 3, 3)),
	}
	opts := BuildOptions{Table: "cats", BatchSize: 1, Types: catTypes}

	first, err := Build(tuples, opts)
	assert.NoError(t, err)

	for range 20 {
		again, err := Build(tuples, opts)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuild_CustomPatchTableAndDialect(t *testing.T) {
	statements, err := Build([]*patch.Tuple{cat(1, "foo")}, BuildOptions{
		Table:      "cats",
		BatchSize:  10,
		Types:      catTypes,
		Dialect:    batchupdate.DialectSQLite,
		PatchTable: "changes",
	})
	assert.NoError(t, err)
	assert.Equal(t,
		`WITH "changes" (id, name) AS ( VALUES (CAST(1 AS INTEGER), CAST('foo' AS varchar)) ) UPDATE "cats" SET "name" = "changes"."name" FROM "changes" WHERE "cats"."id" = "changes"."id"`,
		statements[0].String())
}

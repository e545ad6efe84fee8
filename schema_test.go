package batchupdate

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func membershipsTable() *TableInfo {
	return &TableInfo{
		Name:   "memberships",
		Schema: "crm",
		Columns: map[string]*ColumnInfo{
			"role":    {Name: "role", DataType: "text", Kind: TypeString, Position: 3},
			"org_id":  {Name: "org_id", DataType: "bigint", Kind: TypeInt, Position: 1, IsPrimaryKey: true},
			"user_id": {Name: "user_id", DataType: "bigint", Kind: TypeInt, Position: 2, IsPrimaryKey: true},
		},
	}
}

func TestTableInfo(t *testing.T) {
	table := membershipsTable()

	t.Run("QualifiedName", func(t *testing.T) {
		assert.Equal(t, "crm.memberships", table.QualifiedName())

		for _, schema := range []string{"", "public", "main", "global"} {
			assert.Equal(t, "cats", (&TableInfo{Name: "cats", Schema: schema}).QualifiedName())
		}
	})

	t.Run("Columns", func(t *testing.T) {
		assert.Equal(t, []string{"org_id", "user_id", "role"}, table.ColumnNames())
		assert.True(t, table.HasColumn("role"))
		assert.False(t, table.HasColumn("name"))

		col, err := table.Column("role")
		assert.NoError(t, err)
		assert.Equal(t, "text", col.DataType)

		_, err = table.Column("name")
		assert.IsError(t, err, ErrColumnNotFound)
		assert.Contains(t, err.Error(), "memberships.name")

		assert.Equal(t, map[string]string{"org_id": "bigint", "user_id": "bigint", "role": "text"}, table.ColumnTypes())
	})

	t.Run("PrimaryKeyFromFlags", func(t *testing.T) {
		assert.Equal(t, []string{"org_id", "user_id"}, table.PrimaryKey())
	})

	t.Run("PrimaryKeyFromConstraint", func(t *testing.T) {
		withConstraint := membershipsTable()
		withConstraint.Constraints = []ConstraintInfo{
			{Name: "memberships_user", Type: "UNIQUE", Columns: []string{"user_id"}},
			{Name: "memberships_pkey", Type: ConstraintPrimaryKey, Columns: []string{"user_id", "org_id"}},
		}

		pk := withConstraint.PrimaryKey()
		assert.Equal(t, []string{"user_id", "org_id"}, pk)

		// callers may not modify the constraint through the result
		pk[0] = "role"
		assert.Equal(t, []string{"user_id", "org_id"}, withConstraint.Constraints[1].Columns)
	})

	t.Run("NoPrimaryKey", func(t *testing.T) {
		assert.Equal(t, []string(nil), (&TableInfo{Name: "log"}).PrimaryKey())
	})
}

func TestFindTable(t *testing.T) {
	schema := &DatabaseSchema{Tables: []*TableInfo{
		{Name: "cats", Schema: "public"},
		membershipsTable(),
	}}

	table, err := schema.FindTable("cats")
	assert.NoError(t, err)
	assert.Equal(t, "cats", table.Name)

	table, err = schema.FindTable("crm.memberships")
	assert.NoError(t, err)
	assert.Equal(t, "memberships", table.Name)

	table, err = schema.FindTable("memberships")
	assert.NoError(t, err)
	assert.Equal(t, "crm", table.Schema)

	_, err = schema.FindTable("dogs")
	assert.IsError(t, err, ErrTableNotFound)
}

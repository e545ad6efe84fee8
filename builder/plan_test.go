package builder

import (
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
)

func TestPlan_GroupsBySignatureIgnoringOrder(t *testing.T) {
	a := patch.NewTuple().Set("name", patch.String("a")).Set("id", patch.Int(1))
	b := patch.NewTuple().Set("id", patch.Int(2)).Set("name", patch.String("b"))
	c := patch.NewTuple().Set("id", patch.Int(3)).Set("age", patch.Int(4))

	batches, err := Plan([]*patch.Tuple{a, c, b}, patch.DefaultKeySpec, 100)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(batches))

	assert.Equal(t, patch.Signature{"age", "id"}, batches[0].Signature)
	assert.Equal(t, []*patch.Tuple{c}, batches[0].Tuples)

	assert.Equal(t, patch.Signature{"id", "name"}, batches[1].Signature)
	assert.Equal(t, []*patch.Tuple{a, b}, batches[1].Tuples)
}

func TestPlan_ChunkCount(t *testing.T) {
	testCases := []struct {
		tuples    int
		batchSize int
		sizes     []int
	}{
		{tuples: 1, batchSize: 100, sizes: []int{1}},
		{tuples: 10, batchSize: 10, sizes: []int{10}},
		{tuples: 11, batchSize: 10, sizes: []int{10, 1}},
		{tuples: 25, batchSize: 7, sizes: []int{7, 7, 7, 4}},
		{tuples: 3, batchSize: 1, sizes: []int{1, 1, 1}},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d tuples by %d", tc.tuples, tc.batchSize), func(t *testing.T) {
			var tuples []*patch.Tuple
			for i := range tc.tuples {
				tuples = append(tuples, cat(int64(i+1), fmt.Sprintf("cat-%d", i)))
			}

			batches, err := Plan(tuples, patch.DefaultKeySpec, tc.batchSize)
			assert.NoError(t, err)

			var sizes []int

			var order []*patch.Tuple

			for _, b := range batches {
				sizes = append(sizes, len(b.Tuples))
				order = append(order, b.Tuples...)
			}

			assert.Equal(t, tc.sizes, sizes)
			assert.Equal(t, tuples, order)
		})
	}
}

func TestPlan_DropsNoOpTuples(t *testing.T) {
	tuples := []*patch.Tuple{
		patch.NewTuple(),
		patch.NewTuple().Set("id", patch.Int(1)),
		patch.NewTuple().Set("id", patch.Int(2)).Set("name", patch.String("kept")),
		patch.NewTuple().Set("id", patch.Int(3)).Set("name", patch.String("Felix")),
		nil,
	}

	batches, err := Plan(tuples, patch.DefaultKeySpec, 100)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(batches))
	assert.Equal(t, 2, len(batches[0].Tuples))

	batches, err = Plan(tuples[3:4], patch.Keys("id", "name"), 100)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(batches))
}

func TestPlan_DeduplicatesKeys(t *testing.T) {
	tuples := []*patch.Tuple{cat(1, "foo")}

	batches, err := Plan(tuples, patch.Keys("id", "id"), 100)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(batches))

	stmt, err := Render(batches[0], patch.Keys("id", "id"), "cats", catTypes)
	assert.NoError(t, err)
	assert.Contains(t, stmt.String(), `WHERE "cats"."id" = "batch_updates"."id"`)
	assert.NotContains(t, stmt.String(), " AND ")
}

func TestPlan_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		keys      patch.KeySpec
		batchSize int
	}{
		{"zero batch size", patch.DefaultKeySpec, 0},
		{"negative batch size", patch.DefaultKeySpec, -3},
		{"nil keys", nil, 10},
		{"blank keys", patch.Keys("", " "), 10},
		{"no keys", patch.Keys(), 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			batches, err := Plan([]*patch.Tuple{cat(1, "foo")}, tc.keys, tc.batchSize)
			assert.IsError(t, err, batchupdate.ErrInvalidArgument)
			assert.Zero(t, batches)
		})
	}
}

func TestPlan_EmptyInput(t *testing.T) {
	batches, err := Plan(nil, patch.DefaultKeySpec, 100)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(batches))
}

func TestPlan_MissingKeyColumn(t *testing.T) {
	tuples := []*patch.Tuple{
		cat(1, "foo"),
		patch.NewTuple().Set("name", patch.String("bar")),
	}

	batches, err := Plan(tuples, patch.DefaultKeySpec, 10)
	assert.IsError(t, err, batchupdate.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), `"id"`)
	assert.Zero(t, batches)

	// key-only tuples are dropped before the check
	batches, err = Plan([]*patch.Tuple{patch.NewTuple().Set("name", patch.String("bar"))}, patch.Keys("name"), 10)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(batches))
}

package builder

import (
	"fmt"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
)

// BuildOptions carries everything Build needs besides the tuples.
type BuildOptions struct {
	Table      string
	// Keys defaults to patch.DefaultKeySpec when nil. An empty non-nil list is rejected.
	Keys       patch.KeySpec
	BatchSize  int
	Types      ColumnTypes
	Dialect    batchupdate.Dialect
	PatchTable string
}

// Build plans and renders all statements for tuples.
// It returns either every statement in execution order or an error and nothing.
func Build(tuples []*patch.Tuple, opts BuildOptions) ([]Statement, error) {
	keys := opts.Keys
	if keys == nil {
		keys = patch.DefaultKeySpec
	}

	batches, err := Plan(tuples, keys, opts.BatchSize)
	if err != nil {
		return nil, err
	}

	renderOpts := []Option{WithDialect(opts.Dialect), WithPatchTable(opts.PatchTable)}
	statements := make([]Statement, 0, len(batches))

	for i, b := range batches {
		stmt, err := Render(b, keys, opts.Table, opts.Types, renderOpts...)
		if err != nil {
			return nil, fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err)
		}

		statements = append(statements, stmt)
	}

	return statements, nil
}

// Package builder turns patch tuples into UPDATE statements that join the target
// table against a VALUES relation, one statement per batch of same-shaped tuples.
package builder

import (
	"fmt"
	"sort"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
)

// Batch is a run of tuples sharing one signature, at most batchSize long.
type Batch struct {
	Signature patch.Signature
	Tuples    []*patch.Tuple
}

type group struct {
	signature patch.Signature
	tuples    []*patch.Tuple
}

// Plan groups tuples by signature and slices every group into batches.
//
// Groups come out in signature order; tuples keep their input order inside a group.
// Tuples without columns, or with key columns only, produce nothing. Every other
// tuple must carry all key columns.
func Plan(tuples []*patch.Tuple, keys patch.KeySpec, batchSize int) ([]Batch, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", batchupdate.ErrInvalidArgument, batchSize)
	}

	keys = keys.Normalize()
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: key columns must not be empty", batchupdate.ErrInvalidArgument)
	}

	groups := make(map[string]*group)

	for _, t := range tuples {
		if t == nil {
			continue
		}

		sig := t.Signature()
		if len(sig) == 0 || len(sig.Without(keys)) == 0 {
			continue
		}

		g, ok := groups[sig.Key()]
		if !ok {
			for _, key := range keys {
				if !sig.Contains(key) {
					return nil, fmt.Errorf("%w: key column %q is missing from tuples %s", batchupdate.ErrSchemaMismatch, key, sig)
				}
			}

			g = &group{signature: sig}
			groups[sig.Key()] = g
		}

		g.tuples = append(g.tuples, t)
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}

	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].signature.Compare(ordered[j].signature) < 0
	})

	var batches []Batch

	for _, g := range ordered {
		for start := 0; start < len(g.tuples); start += batchSize {
			end := min(start+batchSize, len(g.tuples))
			batches = append(batches, Batch{
				Signature: g.signature,
				Tuples:    g.tuples[start:end:end],
			})
		}
	}

	return batches, nil
}

package updater

import (
	"fmt"
	"slices"
	"sort"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
)

// Record is one row the caller loaded, possibly modified, and now wants written back.
type Record interface {
	// Changed returns the names of columns whose value differs from the loaded one.
	Changed() []string
	Read(column string) (patch.Value, error)
	Write(column string, v patch.Value) error
}

// MapRecord is a Record backed by a column map. The values given to NewMapRecord
// are the loaded state; Set records a change.
type MapRecord struct {
	original map[string]patch.Value
	current  map[string]patch.Value
	order    []string
}

// NewMapRecord creates a record whose loaded state is values.
func NewMapRecord(values map[string]any) (*MapRecord, error) {
	r := &MapRecord{
		original: make(map[string]patch.Value, len(values)),
		current:  make(map[string]patch.Value, len(values)),
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		v, err := patch.FromAny(values[name])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}

		r.original[name] = v
		r.current[name] = v
	}

	return r, nil
}

// MustMapRecord is NewMapRecord for literals in tests and examples.
func MustMapRecord(values map[string]any) *MapRecord {
	r, err := NewMapRecord(values)
	if err != nil {
		panic(err)
	}

	return r
}

// Set assigns a Go value to a column.
func (r *MapRecord) Set(column string, value any) error {
	v, err := patch.FromAny(value)
	if err != nil {
		return fmt.Errorf("column %s: %w", column, err)
	}

	return r.Write(column, v)
}

// MustSet is Set that panics on unconvertible values, and returns the record for chaining.
func (r *MapRecord) MustSet(column string, value any) *MapRecord {
	if err := r.Set(column, value); err != nil {
		panic(err)
	}

	return r
}

func (r *MapRecord) Write(column string, v patch.Value) error {
	if r.current == nil {
		r.current = make(map[string]patch.Value)
		r.original = make(map[string]patch.Value)
	}

	if !slices.Contains(r.order, column) {
		r.order = append(r.order, column)
	}

	r.current[column] = v

	return nil
}

func (r *MapRecord) Read(column string) (patch.Value, error) {
	v, ok := r.current[column]
	if !ok {
		return patch.Value{}, fmt.Errorf("%w: %s", batchupdate.ErrColumnNotFound, column)
	}

	return v, nil
}

// Changed lists written columns in write order, skipping those set back to their loaded value.
func (r *MapRecord) Changed() []string {
	var changed []string

	for _, column := range r.order {
		before, loaded := r.original[column]
		if loaded && before.Equal(r.current[column]) {
			continue
		}

		changed = append(changed, column)
	}

	return changed
}

// Values returns the current state as plain Go values.
func (r *MapRecord) Values() map[string]any {
	values := make(map[string]any, len(r.current))
	for name, v := range r.current {
		values[name] = v.Any()
	}

	return values
}

// Commit makes the current state the loaded state.
func (r *MapRecord) Commit() {
	for name, v := range r.current {
		r.original[name] = v
	}

	r.order = nil
}

// Package patch holds the per-record column snapshots handed to the statement builder.
package patch

import (
	"fmt"
	"sort"
	"strings"
)

// Column is one name/value pair of a Tuple.
type Column struct {
	Name  string
	Value Value
}

// Tuple is an ordered column → value association for one record.
// Column names are unique; setting an existing name replaces its value in place.
// Insertion order is kept for display only, statements always use Signature order.
type Tuple struct {
	cols  []Column
	index map[string]int
}

// NewTuple creates a tuple from columns in the given order.
func NewTuple(cols ...Column) *Tuple {
	t := &Tuple{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		t.Set(c.Name, c.Value)
	}

	return t
}

// FromMap builds a tuple from a map of Go values, inserting columns in sorted name order.
func FromMap(values map[string]any) (*Tuple, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}

	sort.Strings(names)

	t := NewTuple()

	for _, name := range names {
		v, err := FromAny(values[name])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}

		t.Set(name, v)
	}

	return t, nil
}

// Set assigns a column value and returns the tuple for chaining.
func (t *Tuple) Set(name string, v Value) *Tuple {
	if t.index == nil {
		t.index = make(map[string]int)
	}

	if i, ok := t.index[name]; ok {
		t.cols[i].Value = v
		return t
	}

	t.index[name] = len(t.cols)
	t.cols = append(t.cols, Column{Name: name, Value: v})

	return t
}

func (t *Tuple) Get(name string) (Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return Value{}, false
	}

	return t.cols[i].Value, true
}

func (t *Tuple) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Tuple) Len() int {
	return len(t.cols)
}

// Names returns the column names in insertion order.
func (t *Tuple) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}

	return names
}

// Columns returns a copy of the columns in insertion order.
func (t *Tuple) Columns() []Column {
	cols := make([]Column, len(t.cols))
	copy(cols, t.cols)

	return cols
}

// Signature returns the sorted column names of the tuple.
func (t *Tuple) Signature() Signature {
	return NewSignature(t.Names()...)
}

// Clone returns an independent copy of the tuple.
func (t *Tuple) Clone() *Tuple {
	return NewTuple(t.cols...)
}

func (t *Tuple) String() string {
	var sb strings.Builder

	sb.WriteByte('{')

	for i, c := range t.cols {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(c.Name)
		sb.WriteString(": ")
		sb.WriteString(c.Value.String())
	}

	sb.WriteByte('}')

	return sb.String()
}

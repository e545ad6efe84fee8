package patch

import (
	"slices"
	"strings"
)

// Signature is the sorted set of column names of a tuple. Tuples with equal
// signatures are rendered into the same statement.
type Signature []string

// NewSignature sorts and de-duplicates names.
func NewSignature(names ...string) Signature {
	sig := slices.Clone(names)
	slices.Sort(sig)

	return Signature(slices.Compact(sig))
}

// Key returns a string usable as a map key for grouping.
func (s Signature) Key() string {
	return strings.Join(s, "\x00")
}

// Compare orders signatures element by element; a prefix sorts first.
func (s Signature) Compare(o Signature) int {
	return slices.Compare(s, o)
}

func (s Signature) Equal(o Signature) bool {
	return slices.Equal(s, o)
}

func (s Signature) Contains(name string) bool {
	_, found := slices.BinarySearch(s, name)
	return found
}

// Without returns the columns that are not in keys, in signature order.
func (s Signature) Without(keys KeySpec) []string {
	var rest []string

	for _, name := range s {
		if !keys.Contains(name) {
			rest = append(rest, name)
		}
	}

	return rest
}

func (s Signature) String() string {
	return "(" + strings.Join(s, ", ") + ")"
}

// KeySpec is the ordered list of columns that identify a row.
type KeySpec []string

// DefaultKeySpec matches rows by the id column.
var DefaultKeySpec = KeySpec{"id"}

// Keys is shorthand for building a KeySpec. Keys() is an empty, non-nil KeySpec.
func Keys(names ...string) KeySpec {
	return append(KeySpec{}, names...)
}

// Normalize drops blank and repeated names, keeping the first occurrence order.
func (k KeySpec) Normalize() KeySpec {
	seen := make(map[string]bool, len(k))
	out := make(KeySpec, 0, len(k))

	for _, name := range k {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}

		seen[name] = true
		out = append(out, name)
	}

	return out
}

func (k KeySpec) Contains(name string) bool {
	return slices.Contains(k, name)
}

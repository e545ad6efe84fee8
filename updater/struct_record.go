package updater

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
)

// StructRecord adapts a struct pointer to Record. Fields are mapped through their
// `db:"column"` tag; untagged fields and `db:"-"` are ignored, embedded structs are flattened.
//
// Change detection compares the fields against the state captured by Snapshot,
// which NewStructRecord takes once on creation.
type StructRecord struct {
	target   reflect.Value
	fields   map[string][]int
	order    []string
	snapshot map[string]patch.Value
}

// NewStructRecord wraps ptr and snapshots its current field values as the loaded state.
func NewStructRecord(ptr any) (*StructRecord, error) {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %T", ErrNotStructPointer, ptr)
	}

	r := &StructRecord{
		target: rv,
		fields: make(map[string][]int),
	}
	r.collectFields(rv.Elem().Type(), nil)

	if err := r.Snapshot(); err != nil {
		return nil, err
	}

	return r, nil
}

// StructRecords wraps every element of a slice of struct pointers.
func StructRecords[T any](items []*T) ([]Record, error) {
	records := make([]Record, 0, len(items))

	for i, item := range items {
		r, err := NewStructRecord(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		records = append(records, r)
	}

	return records, nil
}

func (r *StructRecord) collectFields(t reflect.Type, prefix []int) {
	for i := range t.NumField() {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		tag, hasTag := f.Tag.Lookup("db")
		name, _, _ := strings.Cut(tag, ",")

		if !hasTag && f.Anonymous && f.Type.Kind() == reflect.Struct {
			r.collectFields(f.Type, index)
			continue
		}

		if !f.IsExported() || !hasTag || name == "" || name == "-" {
			continue
		}

		if _, dup := r.fields[name]; dup {
			continue
		}

		r.fields[name] = index
		r.order = append(r.order, name)
	}
}

// Target returns the wrapped struct pointer.
func (r *StructRecord) Target() any {
	return r.target.Interface()
}

// Columns returns the mapped column names in field order.
func (r *StructRecord) Columns() []string {
	return append([]string(nil), r.order...)
}

// Snapshot captures the current field values as the loaded state.
func (r *StructRecord) Snapshot() error {
	snapshot := make(map[string]patch.Value, len(r.order))

	for _, name := range r.order {
		v, err := r.Read(name)
		if err != nil {
			return err
		}

		snapshot[name] = v
	}

	r.snapshot = snapshot

	return nil
}

func (r *StructRecord) field(column string) (reflect.Value, error) {
	index, ok := r.fields[column]
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s has no field tagged %q", batchupdate.ErrColumnNotFound, r.target.Elem().Type(), column)
	}

	return r.target.Elem().FieldByIndex(index), nil
}

func (r *StructRecord) Read(column string) (patch.Value, error) {
	f, err := r.field(column)
	if err != nil {
		return patch.Value{}, err
	}

	v, err := patch.FromAny(f.Interface())
	if err != nil {
		return patch.Value{}, fmt.Errorf("column %s: %w", column, err)
	}

	return v, nil
}

func (r *StructRecord) Write(column string, v patch.Value) error {
	f, err := r.field(column)
	if err != nil {
		return err
	}

	if err := assign(f, v); err != nil {
		return fmt.Errorf("column %s: %w", column, err)
	}

	return nil
}

// Changed lists mapped columns whose value differs from the snapshot, in field order.
func (r *StructRecord) Changed() []string {
	var changed []string

	for _, name := range r.order {
		current, err := r.Read(name)
		if err != nil {
			continue
		}

		if before, ok := r.snapshot[name]; ok && before.Equal(current) {
			continue
		}

		changed = append(changed, name)
	}

	return changed
}

var valueType = reflect.TypeFor[patch.Value]()

func assign(dst reflect.Value, v patch.Value) error {
	if dst.Type() == valueType {
		dst.Set(reflect.ValueOf(v))
		return nil
	}

	if v.IsNull() {
		dst.SetZero()
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}

		dst.Set(elem)

		return nil
	}

	src := reflect.ValueOf(v.Any())

	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case dst.Kind() == reflect.String && src.Kind() != reflect.String:
		// reflect would turn an integer into a rune
		return fmt.Errorf("%w: cannot store %s in %s", batchupdate.ErrUnsupportedValue, v.Kind(), dst.Type())
	case src.Type().ConvertibleTo(dst.Type()):
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("%w: cannot store %s in %s", batchupdate.ErrUnsupportedValue, v.Kind(), dst.Type())
	}

	return nil
}

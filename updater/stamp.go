package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
)

// Stamper writes system maintained columns into every record that is about to be updated.
// It returns the columns it wrote; they are added to the record's change set.
type Stamper interface {
	Stamp(ctx context.Context, rec Record, now time.Time) ([]string, error)
	Columns() []string
}

// TimestampStamper writes the update time into Column.
type TimestampStamper struct {
	Column string
}

func (s TimestampStamper) Columns() []string {
	return []string{s.Column}
}

func (s TimestampStamper) Stamp(_ context.Context, rec Record, now time.Time) ([]string, error) {
	if err := rec.Write(s.Column, patch.Timestamp(now)); err != nil {
		return nil, err
	}

	return []string{s.Column}, nil
}

// ValueStamper writes a fixed value into Column.
type ValueStamper struct {
	Column string
	Value  patch.Value
}

func (s ValueStamper) Columns() []string {
	return []string{s.Column}
}

func (s ValueStamper) Stamp(_ context.Context, rec Record, _ time.Time) ([]string, error) {
	if err := rec.Write(s.Column, s.Value); err != nil {
		return nil, err
	}

	return []string{s.Column}, nil
}

// DefaultStampers stamps updated_at with the update time.
func DefaultStampers() []Stamper {
	return []Stamper{TimestampStamper{Column: "updated_at"}}
}

// StampersFromConfig builds stampers for the system fields that carry an on_update default.
func StampersFromConfig(cfg *batchupdate.Config) ([]Stamper, error) {
	fields := cfg.GetSystemFieldsForUpdate()
	stampers := make([]Stamper, 0, len(fields))

	for _, field := range fields {
		if field.OnUpdate.IsCurrentTimestamp() {
			stampers = append(stampers, TimestampStamper{Column: field.Name})
			continue
		}

		var (
			v   patch.Value
			err error
		)

		if field.Type == "" {
			v, err = patch.FromAny(field.OnUpdate.Default)
		} else {
			v, err = patch.Coerce(field.OnUpdate.Default, field.Type)
		}

		if err != nil {
			return nil, fmt.Errorf("system field %s: %w", field.Name, err)
		}

		stampers = append(stampers, ValueStamper{Column: field.Name, Value: v})
	}

	return stampers, nil
}

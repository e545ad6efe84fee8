// Package updater writes the changed columns of many records back to one table with
// as few UPDATE statements as possible, without ever inserting rows.
package updater

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/builder"
	"github.com/shibukawa/batchupdate/patch"
)

// Executor runs a statement. *sql.DB, *sql.Tx and *sql.Conn satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CacheInvalidator drops cached query results after the table changed.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// CacheInvalidatorFunc adapts a function to CacheInvalidator.
type CacheInvalidatorFunc func(ctx context.Context)

func (f CacheInvalidatorFunc) InvalidateCache(ctx context.Context) {
	f(ctx)
}

// AllColumns as UpdateOptions.Columns allows every column of the table.
var AllColumns = []string{"*"}

// UpdateOptions controls a single Update call.
type UpdateOptions struct {
	// Columns is the allow-list of columns that may be written. nil or AllColumns means every column.
	Columns []string
	// Keys identify rows. Defaults to the table primary key, then "id".
	Keys patch.KeySpec
	// BatchSize caps the rows per statement. Zero means batchupdate.DefaultBatchSize.
	BatchSize int
	// SkipValidation disables the validator for this call.
	SkipValidation bool
}

// Updater writes records of one table.
type Updater struct {
	exec       Executor
	table      *batchupdate.TableInfo
	dialect    batchupdate.Dialect
	patchTable string
	stampers   []Stamper
	validator  Validator
	cache      CacheInvalidator
	clock      func() time.Time
	timeout    time.Duration
}

// Option customizes an Updater.
type Option func(*Updater)

func WithDialect(d batchupdate.Dialect) Option {
	return func(u *Updater) {
		u.dialect = d
	}
}

func WithPatchTable(name string) Option {
	return func(u *Updater) {
		u.patchTable = name
	}
}

// WithStampers replaces the default updated_at stamper. Call it without arguments to stamp nothing.
func WithStampers(stampers ...Stamper) Option {
	return func(u *Updater) {
		u.stampers = stampers
	}
}

func WithValidator(v Validator) Option {
	return func(u *Updater) {
		u.validator = v
	}
}

func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(u *Updater) {
		u.cache = c
	}
}

// WithClock sets the time source used for timestamp stamping.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		u.clock = now
	}
}

// WithTimeout bounds every Update call.
func WithTimeout(d time.Duration) Option {
	return func(u *Updater) {
		u.timeout = d
	}
}

// New creates an Updater for table.
func New(exec Executor, table *batchupdate.TableInfo, opts ...Option) (*Updater, error) {
	if exec == nil {
		return nil, fmt.Errorf("%w: executor is nil", batchupdate.ErrInvalidArgument)
	}

	if table == nil || len(table.Columns) == 0 {
		return nil, fmt.Errorf("%w: table schema with columns is required", batchupdate.ErrInvalidArgument)
	}

	u := &Updater{
		exec:       exec,
		table:      table,
		dialect:    batchupdate.DialectPostgres,
		patchTable: batchupdate.DefaultPatchTable,
		stampers:   DefaultStampers(),
		validator:  NewTagValidator(nil),
		clock:      time.Now,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u, nil
}

// Table returns the schema the updater writes to.
func (u *Updater) Table() *batchupdate.TableInfo {
	return u.table
}

// Update writes the changes of records and returns the number of rows the database reported as affected.
//
// Only records with a change inside the column allow-list take part. Those are stamped,
// validated, and turned into one tuple each holding the key columns and the allowed changes.
// When no record takes part nothing is executed. Rows that no longer exist are not re-created.
func (u *Updater) Update(ctx context.Context, records []Record, opts UpdateOptions) (int64, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	statements, err := u.Statements(ctx, records, opts)
	if err != nil {
		return 0, err
	}

	if len(statements) == 0 {
		return 0, nil
	}

	return u.execute(ctx, statements)
}

// Statements runs selection, stamping and validation and returns the statements Update would execute.
// Records that take part are stamped in place.
func (u *Updater) Statements(ctx context.Context, records []Record, opts UpdateOptions) ([]builder.Statement, error) {
	allowed, err := u.allowList(opts.Columns)
	if err != nil {
		return nil, err
	}

	stampers := u.activeStampers()
	for _, s := range stampers {
		allowed = appendUnique(allowed, s.Columns()...)
	}

	keys, err := u.keys(opts.Keys)
	if err != nil {
		return nil, err
	}

	selected := selectRecords(records, allowed)
	if len(selected) == 0 {
		return nil, nil
	}

	now := u.clock()

	for i, rec := range selected {
		for _, s := range stampers {
			if _, err := s.Stamp(ctx, rec, now); err != nil {
				return nil, fmt.Errorf("record %d: stamp: %w", i, err)
			}
		}
	}

	if !opts.SkipValidation && u.validator != nil {
		for i, rec := range selected {
			if err := u.validator.Validate(ctx, rec); err != nil {
				return nil, fmt.Errorf("%w: record %d: %w", ErrValidationFailed, i, err)
			}
		}
	}

	tuples := make([]*patch.Tuple, 0, len(selected))

	for i, rec := range selected {
		t, err := u.tuple(rec, keys, allowed)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		tuples = append(tuples, t)
	}

	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = batchupdate.DefaultBatchSize
	}

	return builder.Build(tuples, builder.BuildOptions{
		Table:      u.table.QualifiedName(),
		Keys:       keys,
		BatchSize:  batchSize,
		Types:      u.table.ColumnTypes(),
		Dialect:    u.dialect,
		PatchTable: u.patchTable,
	})
}

func (u *Updater) execute(ctx context.Context, statements []builder.Statement) (int64, error) {
	table := u.table.QualifiedName()

	var (
		total    int64
		executed int
	)

	defer func() {
		if executed > 0 && u.cache != nil {
			u.cache.InvalidateCache(ctx)
		}
	}()

	for i, stmt := range statements {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("%w: before batch %d of %d: %w", ErrExecution, i+1, len(statements), err)
		}

		query := stmt.String()

		if err := EnforceRowCondition(ctx, table, query); err != nil {
			return total, err
		}

		logger := QueryLoggerFromContext(ctx)
		logger.SetQuery(query)

		n, err := u.run(ctx, query)
		executed++

		logger.SetRowsAffected(n)
		logger.SetErr(err)
		logger.Write(ctx, func() QueryLogMetadata {
			return QueryLogMetadata{
				Table:   table,
				Dialect: u.dialect.String(),
				Batch:   i + 1,
				Batches: len(statements),
			}
		})

		if err != nil {
			return total, fmt.Errorf("%w: batch %d of %d: %w", ErrExecution, i+1, len(statements), err)
		}

		total += n
	}

	return total, nil
}

func (u *Updater) run(ctx context.Context, query string) (int64, error) {
	res, err := u.exec.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (u *Updater) allowList(columns []string) ([]string, error) {
	if columns == nil || slices.Equal(columns, AllColumns) {
		return u.table.ColumnNames(), nil
	}

	var allowed []string

	for _, c := range columns {
		if !u.table.HasColumn(c) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, u.table.Name, c)
		}

		allowed = appendUnique(allowed, c)
	}

	return allowed, nil
}

// activeStampers drops stampers whose columns the table does not have.
func (u *Updater) activeStampers() []Stamper {
	var active []Stamper

	for _, s := range u.stampers {
		ok := true

		for _, c := range s.Columns() {
			if !u.table.HasColumn(c) {
				ok = false
				break
			}
		}

		if ok {
			active = append(active, s)
		}
	}

	return active
}

func (u *Updater) keys(keys patch.KeySpec) (patch.KeySpec, error) {
	keys = keys.Normalize()
	if len(keys) == 0 {
		keys = patch.Keys(u.table.PrimaryKey()...).Normalize()
	}

	if len(keys) == 0 {
		keys = patch.DefaultKeySpec
	}

	for _, k := range keys {
		if !u.table.HasColumn(k) {
			return nil, fmt.Errorf("%w: key %s.%s", ErrUnknownColumn, u.table.Name, k)
		}
	}

	return keys, nil
}

func selectRecords(records []Record, allowed []string) []Record {
	var selected []Record

	for _, rec := range records {
		if rec == nil {
			continue
		}

		for _, c := range rec.Changed() {
			if slices.Contains(allowed, c) {
				selected = append(selected, rec)
				break
			}
		}
	}

	return selected
}

func (u *Updater) tuple(rec Record, keys patch.KeySpec, allowed []string) (*patch.Tuple, error) {
	columns := slices.Clone([]string(keys))

	for _, c := range rec.Changed() {
		if slices.Contains(allowed, c) {
			columns = appendUnique(columns, c)
		}
	}

	t := patch.NewTuple()

	for _, c := range columns {
		v, err := rec.Read(c)
		if err != nil {
			return nil, err
		}

		v, err = u.conform(c, v)
		if err != nil {
			return nil, err
		}

		t.Set(c, v)
	}

	return t, nil
}

// conform converts text and timestamps to the column's declared kind, the way values
// typed in YAML or assigned as strings are expected to land in typed columns.
func (u *Updater) conform(column string, v patch.Value) (patch.Value, error) {
	col, ok := u.table.Columns[column]
	if !ok {
		return v, nil
	}

	switch {
	case v.Kind() == patch.KindString && col.Kind != "" && col.Kind != batchupdate.TypeString:
		c, err := patch.Coerce(v.Text(), col.Kind)
		if err != nil {
			return patch.Value{}, fmt.Errorf("column %s: %w", column, err)
		}

		return c, nil
	case v.Kind() == patch.KindTimestamp && col.Kind == batchupdate.TypeDate:
		return patch.Date(v.Time()), nil
	}

	return v, nil
}

func appendUnique(list []string, names ...string) []string {
	for _, n := range names {
		if !slices.Contains(list, n) {
			list = append(list, n)
		}
	}

	return list
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/cel-go/cel"
	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
	"github.com/shibukawa/batchupdate/updater"
)

// RecordOptions are the flags shared by plan and apply.
type RecordOptions struct {
	Table     string   `short:"t" required:"" help:"Target table"`
	Input     string   `short:"i" required:"" type:"path" help:"YAML or JSON file holding one mapping per record"`
	Keys      []string `help:"Key columns identifying rows (defaults to the primary key)"`
	Columns   []string `help:"Columns allowed to change, or 'all'"`
	Filter    string   `help:"CEL expression over 'row' selecting the records to use"`
	BatchSize int      `help:"Rows per statement (defaults to batch.size)"`
}

// loadInputRows reads a sequence of mappings. JSON input is accepted as YAML.
func loadInputRows(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputFileNotExist, path)
		}

		return nil, err
	}

	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInput, path, err)
	}

	for i, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("%w: %s: row %d is empty", ErrInvalidInput, path, i)
		}

		normalizeRow(row)
	}

	return rows, nil
}

// normalizeRow narrows YAML unsigned integers so that CEL compares them with int literals.
func normalizeRow(row map[string]any) {
	for k, v := range row {
		if u, ok := v.(uint64); ok && u <= math.MaxInt64 {
			row[k] = int64(u)
		}
	}
}

// rowFilter decides whether an input row takes part.
type rowFilter struct {
	program cel.Program
}

func newRowFilter(expr string) (*rowFilter, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, issues.Err())
	}

	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q evaluates to %s, not bool", ErrInvalidFilter, expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	return &rowFilter{program: prg}, nil
}

// Match reports whether the row passes. A nil filter matches everything.
func (f *rowFilter) Match(row map[string]any) (bool, error) {
	if f == nil {
		return true, nil
	}

	out, _, err := f.program.Eval(map[string]any{"row": row})
	if err != nil {
		return false, err
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: result is %T", ErrInvalidFilter, out.Value())
	}

	return matched, nil
}

// resolveKeys picks the key columns: flag, per-table config, primary key, then batch.keys.
func resolveKeys(config *batchupdate.Config, table *batchupdate.TableInfo, name string, flagKeys []string) patch.KeySpec {
	if keys := patch.Keys(flagKeys...).Normalize(); len(keys) > 0 {
		return keys
	}

	if override, ok := config.Tables[name]; ok && len(override.Keys) > 0 {
		return patch.Keys(override.Keys...)
	}

	if pk := table.PrimaryKey(); len(pk) > 0 {
		return patch.Keys(pk...)
	}

	return patch.Keys(config.Batch.Keys...)
}

// resolveColumns turns --columns into an updater allow-list. nil allows every column.
func resolveColumns(config *batchupdate.Config, name string, flagColumns []string) []string {
	if len(flagColumns) == 0 {
		return config.TableSettings(name).Columns
	}

	if slices.ContainsFunc(flagColumns, func(c string) bool { return strings.EqualFold(c, "all") }) {
		return updater.AllColumns
	}

	return flagColumns
}

// buildRecords turns input rows into records whose key columns are loaded
// and whose remaining columns are pending changes.
func buildRecords(table *batchupdate.TableInfo, keys patch.KeySpec, rows []map[string]any) ([]updater.Record, error) {
	records := make([]updater.Record, 0, len(rows))

	for i, row := range rows {
		loaded := make(map[string]any, len(keys))

		for _, key := range keys {
			raw, ok := row[key]
			if !ok {
				return nil, fmt.Errorf("%w: row %d: %s", ErrMissingKeyColumn, i, key)
			}

			v, err := coerceColumn(table, key, raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}

			loaded[key] = v
		}

		rec, err := updater.NewMapRecord(loaded)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		names := make([]string, 0, len(row))
		for name := range row {
			if !keys.Contains(name) {
				names = append(names, name)
			}
		}

		sort.Strings(names)

		for _, name := range names {
			v, err := coerceColumn(table, name, row[name])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}

			if err := rec.Write(name, v); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

func coerceColumn(table *batchupdate.TableInfo, name string, raw any) (patch.Value, error) {
	col, err := table.Column(name)
	if err != nil {
		return patch.Value{}, err
	}

	v, err := patch.Coerce(raw, col.Kind)
	if err != nil {
		return patch.Value{}, fmt.Errorf("column %s: %w", name, err)
	}

	return v, nil
}

// selectRows applies the filter to the input rows.
func selectRows(rows []map[string]any, filter *rowFilter) ([]map[string]any, error) {
	if filter == nil {
		return rows, nil
	}

	var selected []map[string]any

	for i, row := range rows {
		ok, err := filter.Match(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidFilter, i, err)
		}

		if ok {
			selected = append(selected, row)
		}
	}

	return selected, nil
}

// prepare loads, filters and converts the input of plan and apply.
func (o *RecordOptions) prepare(config *batchupdate.Config, table *batchupdate.TableInfo) ([]updater.Record, updater.UpdateOptions, error) {
	filter, err := newRowFilter(o.Filter)
	if err != nil {
		return nil, updater.UpdateOptions{}, err
	}

	rows, err := loadInputRows(o.Input)
	if err != nil {
		return nil, updater.UpdateOptions{}, err
	}

	rows, err = selectRows(rows, filter)
	if err != nil {
		return nil, updater.UpdateOptions{}, err
	}

	keys := resolveKeys(config, table, o.Table, o.Keys)

	records, err := buildRecords(table, keys, rows)
	if err != nil {
		return nil, updater.UpdateOptions{}, err
	}

	batchSize := o.BatchSize
	if batchSize <= 0 {
		batchSize = config.TableSettings(o.Table).BatchSize
	}

	return records, updater.UpdateOptions{
		Columns:        resolveColumns(config, o.Table, o.Columns),
		Keys:           keys,
		BatchSize:      batchSize,
		SkipValidation: !config.Batch.ValidateEnabled(),
	}, nil
}

// newUpdater wires the configured stampers, patch table and timeout.
func newUpdater(exec updater.Executor, config *batchupdate.Config, table *batchupdate.TableInfo, dialect batchupdate.Dialect) (*updater.Updater, error) {
	stampers, err := updater.StampersFromConfig(config)
	if err != nil {
		return nil, err
	}

	return updater.New(exec, table,
		updater.WithDialect(dialect),
		updater.WithPatchTable(config.Batch.PatchTable),
		updater.WithStampers(stampers...),
		updater.WithTimeout(time.Duration(config.Query.Timeout)*time.Second),
	)
}

// refusingExecutor backs updaters that only render statements.
type refusingExecutor struct{}

func (refusingExecutor) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, ErrDryRun
}

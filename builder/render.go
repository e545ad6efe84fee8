package builder

import (
	"fmt"
	"strings"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/patch"
)

// Statement is one rendered, ready to execute UPDATE statement.
type Statement string

func (s Statement) String() string {
	return string(s)
}

// ColumnTypes maps a column name to the SQL type used in CAST for the first VALUES row.
type ColumnTypes map[string]string

type renderOptions struct {
	dialect    batchupdate.Dialect
	patchTable string
}

// Option customizes rendering.
type Option func(*renderOptions)

// WithDialect selects quoting, literal and UPDATE syntax. The default is PostgreSQL.
func WithDialect(d batchupdate.Dialect) Option {
	return func(o *renderOptions) {
		if d != "" {
			o.dialect = d
		}
	}
}

// WithPatchTable renames the VALUES relation (default "batch_updates").
func WithPatchTable(name string) Option {
	return func(o *renderOptions) {
		if name != "" {
			o.patchTable = name
		}
	}
}

type renderedRow []string

// Render builds the UPDATE statement for one batch.
func Render(b Batch, keys patch.KeySpec, table string, types ColumnTypes, opts ...Option) (Statement, error) {
	o := renderOptions{
		dialect:    batchupdate.DialectPostgres,
		patchTable: batchupdate.DefaultPatchTable,
	}
	for _, opt := range opts {
		opt(&o)
	}

	keys = keys.Normalize()
	if len(keys) == 0 {
		return "", fmt.Errorf("%w: key columns must not be empty", batchupdate.ErrInvalidArgument)
	}

	if table == "" {
		return "", fmt.Errorf("%w: table name must not be empty", batchupdate.ErrInvalidArgument)
	}

	if len(b.Tuples) == 0 {
		return "", fmt.Errorf("%w: empty batch", batchupdate.ErrInternalInvariant)
	}

	sig := b.Signature
	if len(sig) == 0 {
		sig = b.Tuples[0].Signature()
	}

	for _, key := range keys {
		if !sig.Contains(key) {
			return "", fmt.Errorf("%w: key column %q is missing from tuples %s", batchupdate.ErrSchemaMismatch, key, sig)
		}
	}

	setColumns := sig.Without(keys)
	if len(setColumns) == 0 {
		return "", fmt.Errorf("%w: batch %s has no columns to update", batchupdate.ErrInternalInvariant, sig)
	}

	declared := make([]string, len(sig))

	for i, col := range sig {
		typ, ok := types[col]
		if !ok || (strings.TrimSpace(typ) == "" && !o.dialect.Supports(batchupdate.FeatureTypeAffinity)) {
			return "", fmt.Errorf("%w: no SQL type known for column %q of %s", batchupdate.ErrSchemaMismatch, col, table)
		}

		declared[i] = typ
	}

	rows := make([]renderedRow, len(b.Tuples))

	for r, tuple := range b.Tuples {
		if !tuple.Signature().Equal(sig) {
			return "", fmt.Errorf("%w: tuple %s does not match batch signature %s", batchupdate.ErrInternalInvariant, tuple, sig)
		}

		row := make(renderedRow, len(sig))

		for i, col := range sig {
			v, _ := tuple.Get(col)

			lit, err := Literal(v, o.dialect)
			if err != nil {
				return "", fmt.Errorf("column %q: %w", col, err)
			}

			if r == 0 {
				lit = "CAST(" + lit + " AS " + castTarget(o.dialect, declared[i], v) + ")"
			}

			row[i] = lit
		}

		rows[r] = row
	}

	if o.dialect.Supports(batchupdate.FeatureUpdateJoin) {
		return renderJoinUpdate(o, table, keys, sig, setColumns, rows), nil
	}

	return renderFromUpdate(o, table, keys, sig, setColumns, rows), nil
}

// renderFromUpdate produces the WITH ... VALUES ... UPDATE ... FROM form understood by
// PostgreSQL, SQLite and DuckDB.
func renderFromUpdate(o renderOptions, table string, keys patch.KeySpec, sig patch.Signature, setColumns []string, rows []renderedRow) Statement {
	d := o.dialect
	target := QuoteTable(table, d)
	source := QuoteIdentifier(o.patchTable, d)

	header := make([]string, len(sig))
	for i, col := range sig {
		header[i] = headerIdentifier(col, d)
	}

	values := make([]string, len(rows))
	for i, row := range rows {
		values[i] = "(" + strings.Join(row, ", ") + ")"
	}

	assignments := make([]string, len(setColumns))
	for i, col := range setColumns {
		assignments[i] = QuoteIdentifier(col, d) + " = " + source + "." + QuoteIdentifier(col, d)
	}

	parts := []string{
		"WITH " + source + " (" + strings.Join(header, ", ") + ")",
		"AS ( VALUES " + strings.Join(values, ", ") + " )",
		"UPDATE " + target,
		"SET " + strings.Join(assignments, ", "),
		"FROM " + source,
		"WHERE " + whereClause(target, source, keys, d),
	}

	return Statement(strings.Join(parts, " "))
}

// renderJoinUpdate produces the multi-table UPDATE used by MySQL and MariaDB, with the
// patch relation built as a UNION ALL derived table whose first SELECT names the columns.
func renderJoinUpdate(o renderOptions, table string, keys patch.KeySpec, sig patch.Signature, setColumns []string, rows []renderedRow) Statement {
	d := o.dialect
	target := QuoteTable(table, d)
	source := QuoteIdentifier(o.patchTable, d)

	selects := make([]string, len(rows))

	for r, row := range rows {
		cols := make([]string, len(row))
		for i, lit := range row {
			if r == 0 {
				cols[i] = lit + " AS " + QuoteIdentifier(sig[i], d)
			} else {
				cols[i] = lit
			}
		}

		selects[r] = "SELECT " + strings.Join(cols, ", ")
	}

	assignments := make([]string, len(setColumns))
	for i, col := range setColumns {
		assignments[i] = target + "." + QuoteIdentifier(col, d) + " = " + source + "." + QuoteIdentifier(col, d)
	}

	parts := []string{
		"UPDATE " + target,
		"JOIN ( " + strings.Join(selects, " UNION ALL ") + " ) AS " + source,
		"ON " + whereClause(target, source, keys, d),
		"SET " + strings.Join(assignments, ", "),
	}

	return Statement(strings.Join(parts, " "))
}

func whereClause(target, source string, keys patch.KeySpec, d batchupdate.Dialect) string {
	conds := make([]string, len(keys))
	for i, key := range keys {
		col := QuoteIdentifier(key, d)
		conds[i] = target + "." + col + " = " + source + "." + col
	}

	return strings.Join(conds, " AND ")
}

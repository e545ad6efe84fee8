package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/builder"
)

// PlanCmd renders the statements for a set of records without executing them.
type PlanCmd struct {
	RecordOptions `embed:""`

	SchemaDir string `help:"Directory written by pull (defaults to schema_dir)" type:"path"`
	DB        string `help:"Read the table definition from this database instead of the schema directory"`
	Env       string `help:"Read the table definition from this environment instead of the schema directory"`
	Dialect   string `help:"SQL dialect (postgres, mysql, mariadb, sqlite, duckdb)"`
}

func (p *PlanCmd) Run(ctx *Context) error {
	config, err := batchupdate.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	statements, err := p.statements(context.Background(), config)
	if err != nil {
		return err
	}

	if len(statements) == 0 {
		if !ctx.Quiet {
			color.Yellow("No changes to apply")
		}

		return nil
	}

	for i, stmt := range statements {
		if !ctx.Quiet {
			color.Cyan("-- batch %d/%d", i+1, len(statements))
		}

		fmt.Println(stmt.String() + ";")
	}

	return nil
}

func (p *PlanCmd) statements(ctx context.Context, config *batchupdate.Config) ([]builder.Statement, error) {
	table, dialect, err := p.table(ctx, config)
	if err != nil {
		return nil, err
	}

	if p.Dialect != "" {
		dialect, err = batchupdate.ParseDialect(p.Dialect)
		if err != nil {
			return nil, err
		}
	}

	records, opts, err := p.prepare(config, table)
	if err != nil {
		return nil, err
	}

	u, err := newUpdater(refusingExecutor{}, config, table, dialect)
	if err != nil {
		return nil, err
	}

	return u.Statements(ctx, records, opts)
}

// table loads the target definition from a database when one is named,
// otherwise from the schema directory.
func (p *PlanCmd) table(ctx context.Context, config *batchupdate.Config) (*batchupdate.TableInfo, batchupdate.Dialect, error) {
	if p.DB == "" && p.Env == "" {
		dir := p.SchemaDir
		if dir == "" {
			dir = config.SchemaDir
		}

		table, err := fileTable(dir, p.Table)
		if err != nil {
			return nil, "", err
		}

		return table, config.GetDialect(), nil
	}

	conn, err := resolveDatabaseConnection(config, p.DB, p.Env, "")
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve database connection: %w", err)
	}

	db, err := conn.open(ctx)
	if err != nil {
		return nil, "", err
	}
	defer db.Close()

	table, err := liveTable(ctx, db, conn.Dialect, p.Table)
	if err != nil {
		return nil, "", err
	}

	return table, conn.Dialect, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/builder"
	"github.com/shibukawa/batchupdate/updater"
)

// ApplyCmd writes record changes to a live table inside one transaction.
type ApplyCmd struct {
	RecordOptions `embed:""`

	DB     string `help:"Database connection URL"`
	Env    string `help:"Environment name from configuration (defaults to query.default_environment)"`
	DryRun bool   `help:"Print the statements instead of executing them"`
}

// applyResult is what a single apply run did.
type applyResult struct {
	Table        string
	Statements   []builder.Statement // dry run only
	RowsAffected int64
}

func (a *ApplyCmd) Run(ctx *Context) error {
	config, err := batchupdate.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if ctx.Verbose {
		color.Blue("Configuration loaded from: %s", ctx.Config)
	}

	result, err := a.apply(context.Background(), config, slog.Default())
	if err != nil {
		return err
	}

	if a.DryRun {
		for i, stmt := range result.Statements {
			if !ctx.Quiet {
				color.Cyan("-- batch %d/%d", i+1, len(result.Statements))
			}

			fmt.Println(stmt.String() + ";")
		}

		return nil
	}

	if !ctx.Quiet {
		color.Green("✓ Updated %d rows in %s", result.RowsAffected, result.Table)
	}

	return nil
}

func (a *ApplyCmd) apply(ctx context.Context, config *batchupdate.Config, logger *slog.Logger) (applyResult, error) {
	env := a.Env
	if a.DB == "" && env == "" {
		env = config.Query.DefaultEnvironment
	}

	conn, err := resolveDatabaseConnection(config, a.DB, env, "")
	if err != nil {
		return applyResult{}, fmt.Errorf("failed to resolve database connection: %w", err)
	}

	db, err := conn.open(ctx)
	if err != nil {
		return applyResult{}, err
	}
	defer db.Close()

	table, err := liveTable(ctx, db, conn.Dialect, a.Table)
	if err != nil {
		return applyResult{}, err
	}

	records, opts, err := a.prepare(config, table)
	if err != nil {
		return applyResult{}, err
	}

	result := applyResult{Table: table.QualifiedName()}

	if a.DryRun {
		u, err := newUpdater(refusingExecutor{}, config, table, conn.Dialect)
		if err != nil {
			return applyResult{}, err
		}

		result.Statements, err = u.Statements(ctx, records, opts)

		return result, err
	}

	ctx = updater.WithLogger(ctx, updater.SlogLogger(logger), updater.LoggerOpt{
		SlowQueryThreshold: config.Query.SlowQueryThreshold,
	})
	if config.Query.ExecuteDangerousQuery {
		ctx = updater.WithAllowingNoWhereUpdate(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return applyResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	u, err := newUpdater(tx, config, table, conn.Dialect)
	if err != nil {
		_ = tx.Rollback()
		return applyResult{}, err
	}

	result.RowsAffected, err = u.Update(ctx, records, opts)
	if err != nil {
		_ = tx.Rollback()
		return applyResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return applyResult{}, fmt.Errorf("failed to commit: %w", err)
	}

	return result, nil
}

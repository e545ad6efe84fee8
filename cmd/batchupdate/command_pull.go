package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/pull"
)

// PullCmd represents the pull command
type PullCmd struct {
	// Database connection options
	DB   string `help:"Database connection URL"`
	Env  string `help:"Environment name from configuration"`
	Type string `help:"Database type (postgres, mysql, mariadb, sqlite, duckdb)"`

	// Output options
	Output      string `short:"o" help:"Output directory (defaults to schema_dir)" type:"path"`
	SchemaAware bool   `help:"Create schema-aware directory structure" default:"true"`

	// Filtering options
	IncludeSchemas []string `help:"Schema names to include (can be specified multiple times)"`
	ExcludeSchemas []string `help:"Schema names to exclude (can be specified multiple times)"`
	IncludeTables  []string `help:"Table patterns to include (can be specified multiple times)"`
	ExcludeTables  []string `help:"Table patterns to exclude (can be specified multiple times)"`
}

func (p *PullCmd) Run(ctx *Context) error {
	if ctx.Verbose {
		if p.Env != "" {
			color.Blue("Pulling schema from environment: %s", p.Env)
		} else {
			color.Blue("Pulling schema from database")
		}
	}

	config, err := batchupdate.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	conn, err := resolveDatabaseConnection(config, p.DB, p.Env, p.Type)
	if err != nil {
		return fmt.Errorf("failed to resolve database connection: %w", err)
	}

	pullConfig := p.createPullConfig(config, conn)

	if ctx.Verbose {
		color.Blue("Database type: %s", conn.Dialect)
		color.Blue("Output directory: %s", pullConfig.OutputPath)
	}

	result, err := pull.ExecutePull(context.Background(), pullConfig)
	if err != nil {
		return fmt.Errorf("failed to pull schema: %w", err)
	}

	if !ctx.Quiet {
		p.displayResults(result, pullConfig.OutputPath)
	}

	return nil
}

// createPullConfig creates a pull configuration from command line options.
// Table patterns fall back to schema_extraction.table_patterns.
func (p *PullCmd) createPullConfig(config *batchupdate.Config, conn connection) pull.PullConfig {
	output := p.Output
	if output == "" {
		output = config.SchemaDir
	}

	include := p.IncludeTables
	if len(include) == 0 {
		include = config.Schema.TablePatterns.Include
	}

	exclude := p.ExcludeTables
	if len(exclude) == 0 {
		exclude = config.Schema.TablePatterns.Exclude
	}

	return pull.PullConfig{
		DatabaseURL:    conn.URL,
		DatabaseType:   string(conn.Dialect),
		OutputPath:     output,
		SchemaAware:    p.SchemaAware,
		IncludeSchemas: p.IncludeSchemas,
		ExcludeSchemas: p.ExcludeSchemas,
		IncludeTables:  include,
		ExcludeTables:  exclude,
	}
}

// displayResults shows the results of the pull operation
func (p *PullCmd) displayResults(result *pull.PullResult, output string) {
	color.Green("✓ Schema extraction completed successfully")

	totalTables := 0
	for _, schema := range result.Schemas {
		totalTables += len(schema.Tables)
	}

	color.Green("  Schemas: %d", len(result.Schemas))
	color.Green("  Tables: %d", totalTables)
	color.Green("  Output: %s", output)

	for _, schema := range result.Schemas {
		color.Cyan("  Schema '%s': %d tables", schema.Name, len(schema.Tables))
	}
}

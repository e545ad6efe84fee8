package pull

import (
	"context"
	"time"

	"github.com/shibukawa/batchupdate"
)

// PullConfig contains configuration for the pull operation
type PullConfig struct {
	DatabaseURL    string
	DatabaseType   string
	OutputPath     string
	SchemaAware    bool     // Write one directory per schema
	IncludeSchemas []string // Schema filter (PostgreSQL/DuckDB)
	ExcludeSchemas []string
	IncludeTables  []string // Wildcards allowed
	ExcludeTables  []string
}

// PullResult contains the result of a pull operation
type PullResult struct {
	Schemas      []batchupdate.DatabaseSchema
	ExtractedAt  time.Time
	DatabaseInfo batchupdate.DatabaseInfo
}

// ExtractConfig contains configuration for schema extraction
type ExtractConfig struct {
	IncludeSchemas []string
	ExcludeSchemas []string
	IncludeTables  []string
	ExcludeTables  []string
}

// Pull extracts the schema described by config and writes one YAML file per table.
func Pull(ctx context.Context, config PullConfig) (*PullResult, error) {
	return NewPullOperation(config).Execute(ctx)
}

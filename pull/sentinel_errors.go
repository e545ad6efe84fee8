package pull

import "errors"

// Connection errors
var (
	ErrConnectionFailed    = errors.New("failed to connect to database")
	ErrInvalidDatabaseURL  = errors.New("invalid database URL")
	ErrUnsupportedDatabase = errors.New("unsupported database type")
)

// Configuration errors
var (
	ErrInvalidOutputPath        = errors.New("invalid output path")
	ErrEmptyDatabaseURL         = errors.New("database URL cannot be empty")
	ErrEmptyDatabaseType        = errors.New("database type cannot be empty")
	ErrInvalidConnectionInfo    = errors.New("invalid connection info")
	ErrConflictingSchemaFilters = errors.New("conflicting schema filters: same schema in both include and exclude lists")
	ErrConflictingTableFilters  = errors.New("conflicting table filters: same table in both include and exclude lists")
)

// YAML errors
var (
	ErrYAMLGenerationFailed  = errors.New("YAML generation failed")
	ErrFileWriteFailed       = errors.New("failed to write file")
	ErrDirectoryCreateFailed = errors.New("failed to create directory")
)

// Query execution errors
var (
	ErrQueryExecutionFailed = errors.New("query execution failed")
)

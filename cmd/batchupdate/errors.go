package main

import "errors"

// Sentinel errors for command operations
var (
	ErrNoDatabasesConfigured = errors.New("no databases configured")
	ErrEnvironmentNotFound   = errors.New("environment not found")
	ErrMissingDBOrEnv        = errors.New("either --db or --env must be specified")
	ErrEmptyConnectionString = errors.New("database connection string is empty")
	ErrEmptyDatabaseType     = errors.New("database type is not specified")
	ErrInputFileNotExist     = errors.New("input file does not exist")
	ErrInvalidInput          = errors.New("invalid input records")
	ErrMissingKeyColumn      = errors.New("input row is missing a key column")
	ErrInvalidFilter         = errors.New("invalid filter expression")
	ErrDryRun                = errors.New("statement execution is disabled in dry-run mode")
)

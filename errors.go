package batchupdate

import "errors"

// Common errors used throughout the batchupdate packages
var (
	// ErrInvalidArgument is returned for a non-positive batch size or an empty key list.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSchemaMismatch indicates a column without a known SQL type, or a tuple missing a key column.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInternalInvariant indicates a batch reached the renderer in a state the planner should have prevented.
	ErrInternalInvariant = errors.New("internal invariant violation")
	// ErrUnsupportedValue indicates a value that cannot be written as a SQL literal.
	ErrUnsupportedValue = errors.New("unsupported value")
	// ErrUnsupportedDialect indicates an unknown database dialect name.
	ErrUnsupportedDialect = errors.New("unsupported dialect")

	// ErrEnvironmentNotFound indicates the requested database environment is not configured.
	ErrEnvironmentNotFound = errors.New("database environment not found")

	// Schema errors
	ErrTableNotFound  = errors.New("table not found")
	ErrColumnNotFound = errors.New("column not found")
)

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/shibukawa/batchupdate"
	"github.com/shibukawa/batchupdate/pull"
)

// connection is a resolved database target.
type connection struct {
	URL     string
	Dialect batchupdate.Dialect
}

// resolveDatabaseConnection determines the database connection string and type.
// Priority: --db > --env > error
func resolveDatabaseConnection(config *batchupdate.Config, dbURL, env, dbType string) (connection, error) {
	var conn connection

	switch {
	case dbURL != "":
		conn.URL = dbURL
	case env != "":
		if len(config.Databases) == 0 {
			return connection{}, ErrNoDatabasesConfigured
		}

		envConfig, exists := config.Databases[env]
		if !exists {
			return connection{}, fmt.Errorf("%w: '%s'", ErrEnvironmentNotFound, env)
		}

		conn.URL = envConfig.Connection
		if dbType == "" {
			dbType = envConfig.Driver
		}
	default:
		return connection{}, ErrMissingDBOrEnv
	}

	if conn.URL == "" {
		return connection{}, ErrEmptyConnectionString
	}

	if dbType == "" {
		detected, err := pull.NewDatabaseConnector().ParseDatabaseURL(conn.URL)
		if err != nil {
			return connection{}, fmt.Errorf("%w: %w", ErrEmptyDatabaseType, err)
		}

		conn.Dialect = detected

		return conn, nil
	}

	dialect, err := batchupdate.ParseDialect(dbType)
	if err != nil {
		return connection{}, err
	}

	conn.Dialect = dialect

	return conn, nil
}

// open connects to the resolved database.
func (c connection) open(ctx context.Context) (*sql.DB, error) {
	db, err := pull.NewDatabaseConnector().Connect(ctx, c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// liveTable extracts the named table from a connected database.
func liveTable(ctx context.Context, db *sql.DB, dialect batchupdate.Dialect, name string) (*batchupdate.TableInfo, error) {
	extractor, err := pull.NewExtractor(string(dialect))
	if err != nil {
		return nil, err
	}

	schemas, err := extractor.ExtractSchemas(ctx, db, pull.ExtractConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	for _, schema := range schemas {
		if table, err := schema.FindTable(name); err == nil {
			return table, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", batchupdate.ErrTableNotFound, name)
}

// fileTable loads the named table from a directory written by pull.
func fileTable(dir, name string) (*batchupdate.TableInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("schema directory %s: %w", dir, err)
	}

	schema, err := pull.LoadDatabaseSchemaFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	return schema.FindTable(name)
}

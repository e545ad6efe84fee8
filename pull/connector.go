package pull

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shibukawa/batchupdate"
)

// DatabaseConnector handles database connections and operations
type DatabaseConnector struct {
	poolSettings ConnectionPoolSettings
}

// ConnectionPoolSettings defines database connection pool configuration
type ConnectionPoolSettings struct {
	MaxOpenConns    int // Maximum number of open connections
	MaxIdleConns    int // Maximum number of idle connections
	ConnMaxLifetime int // Maximum lifetime of connections in seconds
}

// ConnectionInfo contains parsed database connection information
type ConnectionInfo struct {
	Type     batchupdate.Dialect
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Options  map[string]string
}

// PullOperation represents a complete pull operation
type PullOperation struct {
	Config    PullConfig
	connector *DatabaseConnector
}

// NewDatabaseConnector creates a new database connector with default settings
func NewDatabaseConnector() *DatabaseConnector {
	return &DatabaseConnector{
		poolSettings: ConnectionPoolSettings{
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 300,
		},
	}
}

// SetPoolSettings configures connection pool settings
func (c *DatabaseConnector) SetPoolSettings(settings ConnectionPoolSettings) {
	c.poolSettings = settings
}

// GetPoolSettings returns current connection pool settings
func (c *DatabaseConnector) GetPoolSettings() ConnectionPoolSettings {
	return c.poolSettings
}

// ParseDatabaseURL extracts the dialect from a connection URL
func (c *DatabaseConnector) ParseDatabaseURL(databaseURL string) (batchupdate.Dialect, error) {
	if databaseURL == "" {
		return "", ErrEmptyDatabaseURL
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", ErrInvalidDatabaseURL
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return batchupdate.DialectPostgres, nil
	case "mysql":
		return batchupdate.DialectMySQL, nil
	case "mariadb":
		return batchupdate.DialectMariaDB, nil
	case "sqlite", "sqlite3":
		return batchupdate.DialectSQLite, nil
	case "duckdb":
		return batchupdate.DialectDuckDB, nil
	default:
		return "", ErrUnsupportedDatabase
	}
}

// ValidateConnectionString validates the format of a database connection string
func (c *DatabaseConnector) ValidateConnectionString(databaseURL string) error {
	dialect, err := c.ParseDatabaseURL(databaseURL)
	if err != nil {
		return err
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return ErrInvalidDatabaseURL
	}

	switch dialect {
	case batchupdate.DialectSQLite:
		if u.Path == "" && u.Host == "" {
			return ErrInvalidDatabaseURL
		}
	case batchupdate.DialectDuckDB:
		// duckdb:// alone opens an in-memory database
	default:
		if u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
			return ErrInvalidDatabaseURL
		}
	}

	return nil
}

// Connect opens and pings a database connection
func (c *DatabaseConnector) Connect(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if err := c.ValidateConnectionString(databaseURL); err != nil {
		return nil, err
	}

	info, err := c.ParseConnectionInfo(databaseURL)
	if err != nil {
		return nil, err
	}

	connStr, err := c.DriverConnectionString(info)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(info.Type.DriverName(), connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	db.SetMaxOpenConns(c.poolSettings.MaxOpenConns)
	db.SetMaxIdleConns(c.poolSettings.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(c.poolSettings.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return db, nil
}

// ParseConnectionInfo parses a database URL into connection information
func (c *DatabaseConnector) ParseConnectionInfo(databaseURL string) (ConnectionInfo, error) {
	dialect, err := c.ParseDatabaseURL(databaseURL)
	if err != nil {
		return ConnectionInfo{}, err
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return ConnectionInfo{}, ErrInvalidDatabaseURL
	}

	info := ConnectionInfo{
		Type:    dialect,
		Options: make(map[string]string),
	}

	switch dialect {
	case batchupdate.DialectSQLite, batchupdate.DialectDuckDB:
		if u.Host == "" {
			// sqlite:///path/to/db.db
			info.Database = u.Path
		} else {
			// sqlite://./db.db
			info.Database = u.Host + u.Path
		}
	default:
		info.Host = u.Hostname()
		info.Port = u.Port()

		if info.Port == "" {
			if dialect == batchupdate.DialectPostgres {
				info.Port = "5432"
			} else {
				info.Port = "3306"
			}
		}

		info.Database = strings.TrimPrefix(u.Path, "/")

		if u.User != nil {
			info.Username = u.User.Username()
			info.Password, _ = u.User.Password()
		}
	}

	for key, values := range u.Query() {
		if len(values) > 0 {
			info.Options[key] = values[0]
		}
	}

	return info, nil
}

// DriverConnectionString converts connection info into the DSN expected by the database/sql driver.
func (c *DatabaseConnector) DriverConnectionString(info ConnectionInfo) (string, error) {
	switch info.Type {
	case batchupdate.DialectPostgres:
		if info.Host == "" || info.Database == "" {
			return "", ErrInvalidConnectionInfo
		}

		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(info.Host, info.Port),
			Path:   "/" + info.Database,
		}

		if info.Username != "" {
			if info.Password != "" {
				u.User = url.UserPassword(info.Username, info.Password)
			} else {
				u.User = url.User(info.Username)
			}
		}

		q := url.Values{}
		for k, v := range info.Options {
			q.Set(k, v)
		}

		if q.Get("sslmode") == "" {
			q.Set("sslmode", "disable")
		}

		u.RawQuery = q.Encode()

		return u.String(), nil

	case batchupdate.DialectMySQL, batchupdate.DialectMariaDB:
		cfg := mysql.NewConfig()
		cfg.User = info.Username
		cfg.Passwd = info.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(info.Host, info.Port)
		cfg.DBName = info.Database
		cfg.ParseTime = true

		for k, v := range info.Options {
			if cfg.Params == nil {
				cfg.Params = map[string]string{}
			}

			cfg.Params[k] = v
		}

		return cfg.FormatDSN(), nil

	case batchupdate.DialectSQLite:
		if info.Database == "" {
			return "", ErrInvalidConnectionInfo
		}

		return info.Database, nil

	case batchupdate.DialectDuckDB:
		return info.Database, nil

	default:
		return "", ErrUnsupportedDatabase
	}
}

// BuildConnectionString builds a connection URL from connection info
func (c *DatabaseConnector) BuildConnectionString(info ConnectionInfo) string {
	hostPort := net.JoinHostPort(info.Host, info.Port)

	userInfo := info.Username
	if info.Password != "" {
		userInfo += ":" + info.Password
	}

	switch info.Type {
	case batchupdate.DialectPostgres:
		return fmt.Sprintf("postgres://%s@%s/%s", userInfo, hostPort, info.Database)
	case batchupdate.DialectMySQL, batchupdate.DialectMariaDB:
		return fmt.Sprintf("%s://%s@%s/%s", info.Type, userInfo, hostPort, info.Database)
	case batchupdate.DialectSQLite, batchupdate.DialectDuckDB:
		return fmt.Sprintf("%s://%s", info.Type, info.Database)
	default:
		return ""
	}
}

// NewPullOperation creates a new pull operation
func NewPullOperation(config PullConfig) *PullOperation {
	return &PullOperation{
		Config:    config,
		connector: NewDatabaseConnector(),
	}
}

// ValidateConfig validates the pull configuration
func (p *PullOperation) ValidateConfig() error {
	if p.Config.DatabaseURL == "" {
		return ErrEmptyDatabaseURL
	}

	if p.Config.OutputPath == "" {
		return ErrInvalidOutputPath
	}

	if err := ValidateExtractConfig(p.extractConfig()); err != nil {
		return err
	}

	return p.connector.ValidateConnectionString(p.Config.DatabaseURL)
}

func (p *PullOperation) extractConfig() ExtractConfig {
	excludeSchemas := p.Config.ExcludeSchemas
	if len(excludeSchemas) == 0 && len(p.Config.IncludeSchemas) == 0 {
		excludeSchemas = GetDefaultExcludeSchemas(p.Config.DatabaseType)
	}

	return ExtractConfig{
		IncludeSchemas: p.Config.IncludeSchemas,
		ExcludeSchemas: excludeSchemas,
		IncludeTables:  p.Config.IncludeTables,
		ExcludeTables:  p.Config.ExcludeTables,
	}
}

// Execute performs the complete pull operation
func (p *PullOperation) Execute(ctx context.Context) (*PullResult, error) {
	if p.Config.DatabaseType == "" {
		dialect, err := p.connector.ParseDatabaseURL(p.Config.DatabaseURL)
		if err != nil {
			return nil, err
		}

		p.Config.DatabaseType = string(dialect)
	}

	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	db, err := p.connector.Connect(ctx, p.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	extractor, err := NewExtractor(p.Config.DatabaseType)
	if err != nil {
		return nil, err
	}

	schemas, err := extractor.ExtractSchemas(ctx, db, p.extractConfig())
	if err != nil {
		return nil, err
	}

	generator := NewYAMLGenerator(p.Config.SchemaAware)
	if err := generator.Generate(schemas, p.Config.OutputPath); err != nil {
		return nil, err
	}

	return p.CreateResult(schemas), nil
}

// CreateResult creates a pull result from schemas
func (p *PullOperation) CreateResult(schemas []batchupdate.DatabaseSchema) *PullResult {
	var dbInfo batchupdate.DatabaseInfo
	if len(schemas) > 0 {
		dbInfo = schemas[0].DatabaseInfo
	}

	return &PullResult{
		Schemas:      schemas,
		ExtractedAt:  time.Now(),
		DatabaseInfo: dbInfo,
	}
}

// ExecutePull is a convenience function that performs a complete pull operation
func ExecutePull(ctx context.Context, config PullConfig) (*PullResult, error) {
	return NewPullOperation(config).Execute(ctx)
}

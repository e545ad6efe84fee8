package batchupdate

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// DefaultBatchSize is the number of tuples rendered into one statement when nothing else is configured.
const DefaultBatchSize = 100

// DefaultPatchTable is the name of the VALUES relation joined against the target table.
const DefaultPatchTable = "batch_updates"

// Config represents the batchupdate configuration
type Config struct {
	Dialect   string                 `yaml:"dialect" default:"postgres"`
	SchemaDir string                 `yaml:"schema_dir" default:"./schema"`
	Databases map[string]Database    `yaml:"databases"`
	Schema    SchemaExtractionConfig `yaml:"schema_extraction"`
	Batch     BatchConfig            `yaml:"batch"`
	Query     QueryConfig            `yaml:"query"`
	System    SystemConfig           `yaml:"system"`
	Tables    map[string]TableConfig `yaml:"tables"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
	Schema     string `yaml:"schema"`
	Database   string `yaml:"database"`
}

// SchemaExtractionConfig represents schema extraction settings
type SchemaExtractionConfig struct {
	TablePatterns TablePatterns `yaml:"table_patterns"`
}

// TablePatterns represents table inclusion/exclusion patterns
type TablePatterns struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// BatchConfig holds the statement builder settings shared by every table.
type BatchConfig struct {
	Size       int      `yaml:"size" default:"100"`
	Keys       []string `yaml:"keys"`
	PatchTable string   `yaml:"patch_table" default:"batch_updates"`
	// Validate is a pointer so that an explicit false survives default application.
	Validate *bool `yaml:"validate" default:"true"`
}

// ValidateEnabled reports whether records are validated before statements are built.
func (b BatchConfig) ValidateEnabled() bool {
	return b.Validate == nil || *b.Validate
}

// QueryConfig represents query execution settings
type QueryConfig struct {
	DefaultEnvironment    string        `yaml:"default_environment" default:"development"`
	Timeout               int           `yaml:"timeout" default:"30"`
	ExecuteDangerousQuery bool          `yaml:"execute_dangerous_query"`
	SlowQueryThreshold    time.Duration `yaml:"slow_query_threshold" default:"3s"`
}

// TableConfig overrides batch settings for a single table.
type TableConfig struct {
	Keys      []string `yaml:"keys"`
	BatchSize int      `yaml:"batch_size"`
	Columns   []string `yaml:"columns"`
}

// SystemConfig represents system-level configuration
type SystemConfig struct {
	Fields []SystemField `yaml:"fields"`
}

// SystemField represents a column maintained by the updater rather than by the caller.
type SystemField struct {
	// Field name
	Name string `yaml:"name"`

	// Field type, used when the table schema does not know the column
	Type string `yaml:"type"`

	// Configuration for UPDATE operations
	OnUpdate SystemFieldOperation `yaml:"on_update"`
}

// SystemFieldOperation represents the configuration for a system field in a specific operation
type SystemFieldOperation struct {
	// Default value stamped on every updated record.
	// "NOW()" (or CURRENT_TIMESTAMP) means the time of the update call.
	Default any `yaml:"default,omitempty"`
}

// IsCurrentTimestamp reports whether the default asks for the update time.
func (o SystemFieldOperation) IsCurrentTimestamp() bool {
	s, ok := o.Default.(string)
	if !ok {
		return false
	}

	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NOW()", "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP()":
		return true
	}

	return false
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data, validates it and fills defaults.
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	// Parse YAML with strict mode to detect unknown fields
	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := applyDefaults(&config); err != nil {
		return nil, err
	}

	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Dialect != "" {
		if _, err := ParseDialect(config.Dialect); err != nil {
			return fmt.Errorf("%w: invalid dialect '%s': must be one of postgres, mysql, mariadb, sqlite, duckdb", ErrConfigValidation, config.Dialect)
		}
	}

	for name, db := range config.Databases {
		if db.Connection == "" {
			return fmt.Errorf("%w: databases.%s.connection is required", ErrConfigValidation, name)
		}

		if db.Driver != "" {
			if _, err := ParseDialect(db.Driver); err != nil {
				return fmt.Errorf("%w: databases.%s.driver '%s' is not supported", ErrConfigValidation, name, db.Driver)
			}
		}
	}

	if config.Batch.Size < 0 {
		return fmt.Errorf("%w: batch.size must be non-negative, got %d", ErrConfigValidation, config.Batch.Size)
	}

	for _, key := range config.Batch.Keys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: batch.keys must not contain empty names", ErrConfigValidation)
		}
	}

	for _, field := range config.System.Fields {
		if field.Name == "" {
			return fmt.Errorf("%w: system field: name is required", ErrConfigValidation)
		}
	}

	if config.Query.Timeout < 0 {
		return fmt.Errorf("%w: query.timeout must be non-negative, got %d", ErrConfigValidation, config.Query.Timeout)
	}

	if config.Query.SlowQueryThreshold < 0 {
		return fmt.Errorf("%w: query.slow_query_threshold must be >= 0, got %s", ErrConfigValidation, config.Query.SlowQueryThreshold)
	}

	for tableName, table := range config.Tables {
		if table.BatchSize < 0 {
			return fmt.Errorf("%w: tables.%s.batch_size must be non-negative", ErrConfigValidation, tableName)
		}
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	config := &Config{}
	if err := applyDefaults(config); err != nil {
		// Only reachable when the struct tags themselves are broken.
		panic(err)
	}

	return config
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) error {
	if err := defaults.Set(config); err != nil {
		return fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if config.Databases == nil {
		config.Databases = make(map[string]Database)
	}

	if config.Tables == nil {
		config.Tables = make(map[string]TableConfig)
	}

	if len(config.Batch.Keys) == 0 {
		config.Batch.Keys = []string{"id"}
	}

	if len(config.Schema.TablePatterns.Include) == 0 {
		config.Schema.TablePatterns.Include = []string{"*"}
	}

	if len(config.Schema.TablePatterns.Exclude) == 0 {
		config.Schema.TablePatterns.Exclude = []string{"pg_*", "information_schema*", "sys_*"}
	}

	applySystemFieldDefaults(config)

	return nil
}

// applySystemFieldDefaults applies default values for system field configuration
func applySystemFieldDefaults(config *Config) {
	if len(config.System.Fields) == 0 {
		config.System.Fields = []SystemField{
			{
				Name: "updated_at",
				OnUpdate: SystemFieldOperation{
					Default: "NOW()",
				},
			},
		}
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareEnvPattern   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return bareEnvPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in connection settings and paths
func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Connection = expandEnvVars(db.Connection)
		db.Driver = expandEnvVars(db.Driver)
		db.Schema = expandEnvVars(db.Schema)
		db.Database = expandEnvVars(db.Database)
		config.Databases[name] = db
	}

	config.SchemaDir = expandEnvVars(config.SchemaDir)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetDialect returns the parsed dialect, falling back to PostgreSQL.
func (c *Config) GetDialect() Dialect {
	d, err := ParseDialect(c.Dialect)
	if err != nil {
		return DialectPostgres
	}

	return d
}

// GetDatabase returns the named database environment.
// An empty name selects query.default_environment.
func (c *Config) GetDatabase(env string) (Database, error) {
	if env == "" {
		env = c.Query.DefaultEnvironment
	}

	db, ok := c.Databases[env]
	if !ok {
		return Database{}, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, env)
	}

	return db, nil
}

// TableSettings merges the global batch settings with the per-table overrides.
func (c *Config) TableSettings(table string) TableConfig {
	settings := TableConfig{
		Keys:      c.Batch.Keys,
		BatchSize: c.Batch.Size,
	}

	if override, ok := c.Tables[table]; ok {
		if len(override.Keys) > 0 {
			settings.Keys = override.Keys
		}

		if override.BatchSize > 0 {
			settings.BatchSize = override.BatchSize
		}

		settings.Columns = override.Columns
	}

	if settings.BatchSize == 0 {
		settings.BatchSize = DefaultBatchSize
	}

	return settings
}

// GetSystemFieldsForUpdate returns system fields that carry an update default
func (c *Config) GetSystemFieldsForUpdate() []SystemField {
	var fields []SystemField

	for _, field := range c.System.Fields {
		if field.OnUpdate.Default != nil {
			fields = append(fields, field)
		}
	}

	return fields
}

// GetDefaultValueForUpdate gets the default value for a field in UPDATE operations
func (c *Config) GetDefaultValueForUpdate(fieldName string) (any, bool) {
	for _, field := range c.System.Fields {
		if field.Name == fieldName && field.OnUpdate.Default != nil {
			return field.OnUpdate.Default, true
		}
	}

	return nil, false
}

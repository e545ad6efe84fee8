package pull

import (
	"github.com/shibukawa/batchupdate"
)

// YAMLSchema is the metadata block written at the top of every table file.
type YAMLSchema struct {
	Name         string                   `yaml:"name"`
	ExtractedAt  string                   `yaml:"extracted_at,omitempty"`
	DatabaseInfo batchupdate.DatabaseInfo `yaml:"database_info"`
}

type YAMLTable struct {
	Name        string           `yaml:"name"`
	Schema      string           `yaml:"schema,omitempty"`
	Columns     []YAMLColumn     `yaml:"columns"`
	Constraints []YAMLConstraint `yaml:"constraints,omitempty"`
	Comment     string           `yaml:"comment,omitempty"`
}

type YAMLColumn struct {
	Name         string `yaml:"name"`
	DataType     string `yaml:"data_type"`
	Kind         string `yaml:"kind"`
	Position     int    `yaml:"position"`
	Nullable     bool   `yaml:"nullable"`
	DefaultValue string `yaml:"default_value,omitempty"`
	Comment      string `yaml:"comment,omitempty"`
	IsPrimaryKey bool   `yaml:"is_primary_key,omitempty"`
}

type YAMLConstraint struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Columns []string `yaml:"columns"`
}

// yamlTableFile is the layout of one <table>.yaml file.
type yamlTableFile struct {
	Metadata YAMLSchema `yaml:"metadata"`
	Table    YAMLTable  `yaml:"table"`
}

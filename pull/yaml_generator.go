package pull

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/shibukawa/batchupdate"
)

// YAMLGenerator generates YAML schema files from database schemas
type YAMLGenerator struct {
	SchemaAware bool // Enable schema-aware directory structure
	now         func() time.Time
}

// NewYAMLGenerator creates a new YAML generator
func NewYAMLGenerator(schemaAware bool) *YAMLGenerator {
	return &YAMLGenerator{
		SchemaAware: schemaAware,
		now:         time.Now,
	}
}

// Generate writes one YAML file per table below outputPath.
func (g *YAMLGenerator) Generate(schemas []batchupdate.DatabaseSchema, outputPath string) error {
	extractedAt := g.now().UTC().Format(time.RFC3339)

	for _, schema := range schemas {
		schemaPath := g.getSchemaPath(outputPath, schema.Name)
		if err := os.MkdirAll(schemaPath, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrDirectoryCreateFailed, err)
		}

		metadata := YAMLSchema{
			Name:         schema.Name,
			ExtractedAt:  extractedAt,
			DatabaseInfo: schema.DatabaseInfo,
		}

		for _, table := range schema.Tables {
			data, err := yaml.Marshal(yamlTableFile{
				Metadata: metadata,
				Table:    toYAMLTable(table),
			})
			if err != nil {
				return fmt.Errorf("%w: %w", ErrYAMLGenerationFailed, err)
			}

			filename := filepath.Join(schemaPath, g.getTableFileName(table.Name))
			if err := os.WriteFile(filename, data, 0o644); err != nil {
				return fmt.Errorf("%w: %w", ErrFileWriteFailed, err)
			}
		}
	}

	return nil
}

// getSchemaPath returns the appropriate path for schema files
func (g *YAMLGenerator) getSchemaPath(outputPath, schemaName string) string {
	if !g.SchemaAware {
		return outputPath
	}

	if schemaName == "" || schemaName == "main" {
		schemaName = "global"
	}

	return filepath.Join(outputPath, schemaName)
}

// getTableFileName returns the filename for a table YAML file
func (g *YAMLGenerator) getTableFileName(tableName string) string {
	return tableName + ".yaml"
}

func toYAMLTable(t *batchupdate.TableInfo) YAMLTable {
	columns := make([]YAMLColumn, 0, len(t.Columns))
	for _, name := range t.ColumnNames() {
		c := t.Columns[name]
		columns = append(columns, YAMLColumn{
			Name:         c.Name,
			DataType:     c.DataType,
			Kind:         c.Kind,
			Position:     c.Position,
			Nullable:     c.Nullable,
			DefaultValue: c.DefaultValue,
			Comment:      c.Comment,
			IsPrimaryKey: c.IsPrimaryKey,
		})
	}

	var constraints []YAMLConstraint
	for _, c := range t.Constraints {
		constraints = append(constraints, YAMLConstraint{
			Name:    c.Name,
			Type:    c.Type,
			Columns: c.Columns,
		})
	}

	return YAMLTable{
		Name:        t.Name,
		Schema:      t.Schema,
		Columns:     columns,
		Constraints: constraints,
		Comment:     t.Comment,
	}
}

package pull

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/shibukawa/batchupdate"
)

// LoadTableFromYAMLFile loads a TableInfo from a per-table YAML file
func LoadTableFromYAMLFile(path string) (*batchupdate.TableInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file yamlTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return yamlTableToTableInfo(&file.Table), nil
}

// LoadDatabaseSchemaFromDir loads every per-table YAML file below dir, descending into
// schema directories written by a schema-aware pull.
func LoadDatabaseSchemaFromDir(dir string) (*batchupdate.DatabaseSchema, error) {
	dbSchema := &batchupdate.DatabaseSchema{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || (filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml") {
			return nil
		}

		table, err := LoadTableFromYAMLFile(path)
		if err != nil {
			return err
		}

		if table.Name != "" {
			dbSchema.Tables = append(dbSchema.Tables, table)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(dbSchema.Tables, func(i, j int) bool {
		return dbSchema.Tables[i].QualifiedName() < dbSchema.Tables[j].QualifiedName()
	})

	if len(dbSchema.Tables) > 0 {
		dbSchema.Name = dbSchema.Tables[0].Schema
	}

	return dbSchema, nil
}

func yamlTableToTableInfo(y *YAMLTable) *batchupdate.TableInfo {
	columns := map[string]*batchupdate.ColumnInfo{}

	for i, c := range y.Columns {
		position := c.Position
		if position == 0 {
			position = i + 1
		}

		columns[c.Name] = &batchupdate.ColumnInfo{
			Name:         c.Name,
			DataType:     c.DataType,
			Kind:         c.Kind,
			Position:     position,
			Nullable:     c.Nullable,
			DefaultValue: c.DefaultValue,
			Comment:      c.Comment,
			IsPrimaryKey: c.IsPrimaryKey,
		}
	}

	constraints := []batchupdate.ConstraintInfo{}
	for _, c := range y.Constraints {
		constraints = append(constraints, batchupdate.ConstraintInfo{
			Name:    c.Name,
			Type:    c.Type,
			Columns: c.Columns,
		})
	}

	return &batchupdate.TableInfo{
		Name:        y.Name,
		Schema:      y.Schema,
		Columns:     columns,
		Constraints: constraints,
		Comment:     y.Comment,
	}
}

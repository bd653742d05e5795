package engine

// seeds.go - loading raw source CSVs into the warehouse's raw schema.
// An optional schema.yml beside the CSVs declares column types; undeclared
// columns are left to the store's inference.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forge-data/crmforge/pkg/core"
)

// seedSchema mirrors the optional seeds/schema.yml file.
type seedSchema struct {
	Seeds []seedSpec `yaml:"seeds"`
}

type seedSpec struct {
	Name    string            `yaml:"name"`
	Columns map[string]string `yaml:"columns"`
}

// LoadSeeds loads every CSV in the seeds directory into the raw schema,
// one relation per file, named after the file.
func (e *Engine) LoadSeeds(ctx context.Context) error {
	if e.seedsDir == "" {
		return nil
	}

	if err := e.ensureConnected(ctx); err != nil {
		return err
	}

	entries, err := os.ReadDir(e.seedsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read seeds directory: %w", err)
	}

	types, err := e.loadSeedSchema()
	if err != nil {
		return err
	}

	if err := e.db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", e.project.RawSchema)); err != nil {
		return fmt.Errorf("failed to create raw schema: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".csv") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		table := strings.TrimSuffix(name, ".csv")
		target := fmt.Sprintf("%s.%s", e.project.RawSchema, table)
		path := filepath.Join(e.seedsDir, name)

		e.logger.Debug("loading seed", "table", target, "path", path)
		if err := e.db.LoadCSV(ctx, target, path, types[table]); err != nil {
			return fmt.Errorf("failed to load seed %s: %w", name, err)
		}
		e.logger.Info("seed loaded", "table", target)
	}
	return nil
}

// loadSeedSchema reads seeds/schema.yml if present and returns declared
// column types per seed name.
func (e *Engine) loadSeedSchema() (map[string][]core.ColumnDef, error) {
	data, err := os.ReadFile(filepath.Join(e.seedsDir, "schema.yml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read seed schema: %w", err)
	}

	var schema seedSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse seed schema: %w", err)
	}

	types := make(map[string][]core.ColumnDef, len(schema.Seeds))
	for _, spec := range schema.Seeds {
		cols := make([]core.ColumnDef, 0, len(spec.Columns))
		for name, typ := range spec.Columns {
			cols = append(cols, core.ColumnDef{Name: name, Type: typ})
		}
		sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
		types[spec.Name] = cols
	}
	return types, nil
}

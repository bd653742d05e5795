// Package duckdb provides the DuckDB relation-store adapter.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/forge-data/crmforge/pkg/adapter"
	"github.com/forge-data/crmforge/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements adapter.Adapter for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
func New() *Adapter {
	return &Adapter{}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Connect establishes a connection to DuckDB. An empty path means an
// in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// GetTableMetadata retrieves metadata for a relation.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	return a.GetTableMetadataCommon(ctx, table, "main", "?", "?")
}

// LoadCSV loads a CSV file into a relation using DuckDB's native reader.
// Declared column types override inference via a typed projection.
func (a *Adapter) LoadCSV(ctx context.Context, table, filePath string, columns []core.ColumnDef) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	selectList := "*"
	if len(columns) > 0 {
		casts := make([]string, len(columns))
		for i, c := range columns {
			casts[i] = fmt.Sprintf("CAST(%s AS %s) AS %s", c.Name, c.Type, c.Name)
		}
		selectList = strings.Join(casts, ", ")
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT %s FROM read_csv_auto('%s', header=true)",
		table, selectList, absPath,
	)
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV into %s: %w", table, err)
	}
	return nil
}

// Ensure Adapter implements adapter.Adapter.
var _ adapter.Adapter = (*Adapter)(nil)

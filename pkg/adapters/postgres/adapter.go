// Package postgres provides the PostgreSQL relation-store adapter, matching
// the warehouse the original ingestion pipeline loads into.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/forge-data/crmforge/pkg/adapter"
	"github.com/forge-data/crmforge/pkg/core"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// Adapter implements adapter.Adapter for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
func New() *Adapter {
	return &Adapter{}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "postgres"
}

// buildDSN assembles the keyword/value connection string, applying the
// local-development defaults for anything unset.
func buildDSN(cfg core.AdapterConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		host, port, cfg.Database, cfg.Username, cfg.Password, sslMode)
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	db, err := sql.Open("pgx", buildDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// GetTableMetadata retrieves metadata for a relation.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	return a.GetTableMetadataCommon(ctx, table, "public", "$1", "$2")
}

// LoadCSV loads a CSV file into a relation. PostgreSQL has no
// session-independent CSV reader, so rows go through the portable
// batch-insert path.
func (a *Adapter) LoadCSV(ctx context.Context, table, filePath string, columns []core.ColumnDef) error {
	return a.LoadCSVRows(ctx, table, filePath, columns, func(i int) string {
		return fmt.Sprintf("$%d", i)
	})
}

// Ensure Adapter implements adapter.Adapter.
var _ adapter.Adapter = (*Adapter)(nil)

// Package adapter defines the relation-store contract the build engine
// executes against, plus shared database/sql plumbing for implementations.
// Concrete adapters live in pkg/adapters subdirectories and register
// themselves via init.
package adapter

import (
	"context"
	"database/sql"

	"github.com/forge-data/crmforge/pkg/core"
)

// Adapter is the capability surface the engine needs from a relation store:
// execute a statement, run a query, create relations from query results, and
// bulk-load raw source files.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg core.AdapterConfig) error

	// Close releases the connection.
	Close() error

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string) (*core.Rows, error)

	// Begin starts a transaction. Used for multi-statement operations that
	// must commit atomically, such as replacing persisted relations.
	Begin(ctx context.Context) (*sql.Tx, error)

	// GetTableMetadata retrieves column and row-count metadata for a
	// schema-qualified relation.
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)

	// LoadCSV loads a CSV file into a relation, replacing it if present.
	// columns may declare types; an empty slice lets the store infer.
	LoadCSV(ctx context.Context, table string, filePath string, columns []core.ColumnDef) error

	// DialectName returns the SQL dialect identifier for this adapter.
	DialectName() string
}

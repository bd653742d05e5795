package core

import "database/sql"

// AdapterConfig holds connection settings for a relation-store adapter.
type AdapterConfig struct {
	// Type selects the adapter: duckdb, postgres.
	Type string
	// Path is the database file for file-based stores. Empty means
	// in-memory for DuckDB.
	Path string
	// Database is the database name for network stores.
	Database string
	// Schema is the default schema.
	Schema string

	Host     string
	Port     int
	Username string
	Password string
	SSLMode  string

	// Options holds driver-specific settings.
	Options map[string]string
}

// Column describes one column of a stored relation.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata describes a stored relation.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows so callers do not import database/sql directly.
type Rows struct {
	*sql.Rows
}

// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/forge-data/crmforge/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/forge-data/crmforge/pkg/adapter"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter {
		a := New()
		a.Logger = logger
		return a
	})
}

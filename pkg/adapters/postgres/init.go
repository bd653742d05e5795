package postgres

import (
	"log/slog"

	"github.com/forge-data/crmforge/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter {
		a := New()
		a.Logger = logger
		return a
	})
}

package main

import (
	"os"

	"github.com/forge-data/crmforge/internal/cli"

	_ "github.com/forge-data/crmforge/pkg/adapters/duckdb"
	_ "github.com/forge-data/crmforge/pkg/adapters/postgres"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

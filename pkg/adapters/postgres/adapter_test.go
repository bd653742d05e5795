package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forge-data/crmforge/pkg/adapter"
	"github.com/forge-data/crmforge/pkg/core"
)

func TestBuildDSN_Defaults(t *testing.T) {
	dsn := buildDSN(core.AdapterConfig{Database: "crm", Username: "etl"})
	assert.Equal(t, "host=localhost port=5432 dbname=crm user=etl password= sslmode=prefer", dsn)
}

func TestBuildDSN_Explicit(t *testing.T) {
	dsn := buildDSN(core.AdapterConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "crm",
		Username: "etl",
		Password: "secret",
		SSLMode:  "require",
	})
	assert.Equal(t, "host=db.internal port=5433 dbname=crm user=etl password=secret sslmode=require", dsn)
}

func TestDialectName(t *testing.T) {
	assert.Equal(t, "postgres", New().DialectName())
}

func TestRegisteredWithAdapterRegistry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("postgres"))
}

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerSchema(t *testing.T) {
	assert.Equal(t, "staging", LayerStaging.Schema())
	assert.Equal(t, "intermediate", LayerIntermediate.Schema())
	assert.Equal(t, "marts", LayerMart.Schema())
	assert.Equal(t, "main", Layer("bogus").Schema())
}

func TestLayerDefaultMaterialization(t *testing.T) {
	assert.Equal(t, MaterializationView, LayerStaging.DefaultMaterialization())
	assert.Equal(t, MaterializationView, LayerIntermediate.DefaultMaterialization())
	assert.Equal(t, MaterializationTable, LayerMart.DefaultMaterialization())
}

func TestModelMaterializationOverride(t *testing.T) {
	m := &Model{Name: "stg_x", Layer: LayerStaging}
	assert.Equal(t, MaterializationView, m.Materialization())

	m.Materialized = MaterializationTable
	assert.Equal(t, MaterializationTable, m.Materialization())
}

func TestModelRelationName(t *testing.T) {
	m := &Model{Name: "fct_opportunities", Layer: LayerMart}
	assert.Equal(t, "marts.fct_opportunities", m.RelationName())
}

func TestProjectConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ProjectConfig)
		wantField string
	}{
		{"month too low", func(c *ProjectConfig) { c.FiscalYearStartMonth = 0 }, "fiscal_year_start_month"},
		{"month too high", func(c *ProjectConfig) { c.FiscalYearStartMonth = 13 }, "fiscal_year_start_month"},
		{"zero concurrency", func(c *ProjectConfig) { c.BuildConcurrency = 0 }, "build_concurrency"},
		{"inverted range", func(c *ProjectConfig) {
			c.DateRangeEnd = c.DateRangeStart.AddDate(0, 0, -1)
		}, "date_range_end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultProjectConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}

	assert.NoError(t, DefaultProjectConfig().Validate())
}

func TestDefaultProjectConfig(t *testing.T) {
	cfg := DefaultProjectConfig()
	assert.Equal(t, 2, cfg.FiscalYearStartMonth)
	assert.Equal(t, time.Monday, cfg.WeekStart)
	assert.Equal(t, 1, cfg.BuildConcurrency)
	assert.Equal(t, "raw", cfg.RawSchema)
}

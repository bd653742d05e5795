// Package core defines the shared domain types for crmforge: models,
// materializations, build runs, and the relation-store contract. It has no
// dependencies on the engine or CLI so that adapters and model definitions
// can both import it.
package core

import (
	"fmt"
	"time"
)

// Layer identifies which tier of the warehouse a model belongs to.
// The layer determines the model's schema and its default materialization.
type Layer string

// Layer constants.
const (
	LayerStaging      Layer = "staging"
	LayerIntermediate Layer = "intermediate"
	LayerMart         Layer = "mart"
)

// Schema returns the warehouse schema a layer's relations live in.
func (l Layer) Schema() string {
	switch l {
	case LayerStaging:
		return "staging"
	case LayerIntermediate:
		return "intermediate"
	case LayerMart:
		return "marts"
	default:
		return "main"
	}
}

// DefaultMaterialization returns the materialization policy a layer implies
// when a model does not override it. Staging and intermediate relations are
// recomputed on every build; marts persist.
func (l Layer) DefaultMaterialization() Materialization {
	if l == LayerMart {
		return MaterializationTable
	}
	return MaterializationView
}

// Materialization defines how a model's output is stored.
type Materialization string

// Materialization constants.
const (
	// MaterializationView recomputes the relation on every build and
	// discards it afterwards.
	MaterializationView Materialization = "view"
	// MaterializationTable persists the relation, replaced wholesale on a
	// successful build.
	MaterializationTable Materialization = "table"
)

// Model is a named transformation unit. Models are registered in code; each
// declares its upstream references by name and supplies either a SQL query
// over those upstreams or a pure row generator (for source-free models such
// as the date dimension). Exactly one of SQL and Rows must be set.
type Model struct {
	// Name is the unique model name, e.g. "stg_salesforce__accounts".
	Name string
	// Layer places the model in staging, intermediate, or mart.
	Layer Layer
	// Refs are the names of upstream models this model reads from.
	// Staging models have no refs; they read the raw source directly.
	Refs []string
	// Materialized overrides the layer's default materialization.
	Materialized Materialization
	// Description is a human-readable summary of the model.
	Description string
	// PrimaryKey is the natural key column carried from the source system.
	// Every staging model declares one; downstream models never re-key.
	PrimaryKey string
	// SQL builds the model's query. Upstream relations must be referenced
	// through bc.Ref so the build resolves them to their physical names.
	SQL func(bc *BuildContext) (string, error)
	// Rows generates the model's relation directly. Used by source-free
	// leaf models.
	Rows func(bc *BuildContext) (*Relation, error)
}

// Materialization returns the model's effective materialization policy.
func (m *Model) Materialization() Materialization {
	if m.Materialized != "" {
		return m.Materialized
	}
	return m.Layer.DefaultMaterialization()
}

// RelationName returns the schema-qualified physical name of the model's
// output relation.
func (m *Model) RelationName() string {
	return fmt.Sprintf("%s.%s", m.Layer.Schema(), m.Name)
}

// Relation is a generated result set: column definitions plus rows of
// values in column order.
type Relation struct {
	Columns []ColumnDef
	Rows    [][]any
}

// ColumnDef declares a column name and its SQL type for generated relations.
type ColumnDef struct {
	Name string
	Type string
}

// ProjectConfig holds the validated build-time options every model can
// depend on. It is assembled once at build start and passed through the
// BuildContext, never resolved ad hoc inside a model.
type ProjectConfig struct {
	// FiscalYearStartMonth is the calendar month (1..12) the fiscal year
	// begins in. Months before it belong to the previous fiscal year.
	FiscalYearStartMonth int
	// DateRangeStart and DateRangeEnd bound the date dimension, inclusive.
	DateRangeStart time.Time
	DateRangeEnd   time.Time
	// WeekStart is the weekday the week originates on for day-of-week
	// numbering in the date dimension.
	WeekStart time.Weekday
	// BuildConcurrency bounds how many models of one execution level may
	// run in parallel. Minimum 1.
	BuildConcurrency int
	// RawSchema is the schema the upstream loader deposits source
	// relations into.
	RawSchema string
}

// DefaultProjectConfig returns the documented option defaults.
func DefaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		FiscalYearStartMonth: 2,
		DateRangeStart:       time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		DateRangeEnd:         time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		WeekStart:            time.Monday,
		BuildConcurrency:     1,
		RawSchema:            "raw",
	}
}

// Validate checks option ranges. Violations are ConfigurationErrors.
func (c ProjectConfig) Validate() error {
	if c.FiscalYearStartMonth < 1 || c.FiscalYearStartMonth > 12 {
		return &ConfigurationError{
			Field:  "fiscal_year_start_month",
			Reason: fmt.Sprintf("must be in 1..12, got %d", c.FiscalYearStartMonth),
		}
	}
	if c.BuildConcurrency < 1 {
		return &ConfigurationError{
			Field:  "build_concurrency",
			Reason: fmt.Sprintf("must be >= 1, got %d", c.BuildConcurrency),
		}
	}
	if c.DateRangeEnd.Before(c.DateRangeStart) {
		return &ConfigurationError{
			Field:  "date_range_end",
			Reason: "must not precede date_range_start",
		}
	}
	return nil
}

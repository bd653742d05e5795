// Package config loads the CLI configuration from crmforge.yaml,
// environment variables, and command-line flags, in that order of
// increasing precedence.
package config

import (
	"strings"
	"time"

	"github.com/forge-data/crmforge/pkg/core"
)

// Default configuration values.
const (
	DefaultSeedsDir  = "seeds"
	DefaultStateFile = ".crmforge/state.db"
	DefaultEnv       = "dev"
	DefaultOutput    = "auto"
)

// Config holds all CLI configuration options.
type Config struct {
	FiscalYearStartMonth int           `koanf:"fiscal_year_start_month"`
	DateRangeStart       time.Time     `koanf:"date_range_start"`
	DateRangeEnd         time.Time     `koanf:"date_range_end"`
	WeekStart            string        `koanf:"week_start"`
	BuildConcurrency     int           `koanf:"build_concurrency"`
	SeedsDir             string        `koanf:"seeds_dir"`
	StatePath            string        `koanf:"state_path"`
	Environment          string        `koanf:"environment"`
	Verbose              bool          `koanf:"verbose"`
	OutputFormat         string        `koanf:"output"`
	Target               *TargetConfig `koanf:"target"`

	// ProjectRoot is the directory relative paths resolve against. Set by
	// the loader, never read from the config file.
	ProjectRoot string `koanf:"-"`
}

// TargetConfig holds the warehouse connection settings.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Database string            `koanf:"database"`
	Schema   string            `koanf:"schema"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	SSLMode  string            `koanf:"sslmode"`
	Options  map[string]string `koanf:"options"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Project converts the loaded options into a validated build
// configuration.
func (c *Config) Project() (core.ProjectConfig, error) {
	p := core.DefaultProjectConfig()
	if c.FiscalYearStartMonth != 0 {
		p.FiscalYearStartMonth = c.FiscalYearStartMonth
	}
	if !c.DateRangeStart.IsZero() {
		p.DateRangeStart = c.DateRangeStart
	}
	if !c.DateRangeEnd.IsZero() {
		p.DateRangeEnd = c.DateRangeEnd
	}
	if c.BuildConcurrency != 0 {
		p.BuildConcurrency = c.BuildConcurrency
	}
	if c.WeekStart != "" {
		day, ok := weekdays[strings.ToLower(c.WeekStart)]
		if !ok {
			return core.ProjectConfig{}, &core.ConfigurationError{
				Field:  "week_start",
				Reason: "unknown weekday name " + strings.ToLower(c.WeekStart),
			}
		}
		p.WeekStart = day
	}
	if err := p.Validate(); err != nil {
		return core.ProjectConfig{}, err
	}
	return p, nil
}

// Adapter converts the target settings into an adapter configuration.
// Unset targets default to an in-memory DuckDB.
func (c *Config) Adapter() core.AdapterConfig {
	t := c.Target
	if t == nil {
		return core.AdapterConfig{Type: "duckdb"}
	}
	a := core.AdapterConfig{
		Type:     t.Type,
		Database: t.Database,
		Schema:   t.Schema,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		SSLMode:  t.SSLMode,
		Options:  t.Options,
	}
	if a.Type == "" {
		a.Type = "duckdb"
	}
	// File-based stores carry the location in Path.
	if a.Type == "duckdb" {
		a.Path = t.Database
	}
	return a
}

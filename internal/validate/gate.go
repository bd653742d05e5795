// Package validate implements the post-build assertion gate. Every
// assertion is a query that returns zero rows on success; the gate runs all
// of them, never stops at the first failure, and never mutates the
// warehouse.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/forge-data/crmforge/pkg/adapter"
)

// SampleLimit bounds how many offending rows a failed assertion reports.
const SampleLimit = 5

// Assertion categories.
const (
	CategoryUnique         = "unique"
	CategoryNotNull        = "not_null"
	CategoryRelationships  = "relationships"
	CategoryAcceptedRange  = "accepted_range"
	CategoryAcceptedValues = "accepted_values"
	CategoryExpression     = "expression"
)

// Assertion is one named data quality check. Query must select the
// offending rows; zero rows means the assertion passes.
type Assertion struct {
	Name     string
	Model    string
	Category string
	Query    string
}

// Result is the outcome of one assertion.
type Result struct {
	Assertion  Assertion
	Passed     bool
	FailedRows int64
	// Sample holds up to SampleLimit offending rows rendered as strings,
	// one line per row.
	Sample []string
	// Err is set when the assertion itself could not run. A broken
	// assertion counts as failed.
	Err error
}

// Gate executes assertions against the relation store.
type Gate struct {
	adapter adapter.Adapter
	logger  *slog.Logger
}

// New creates a validation gate.
func New(a adapter.Adapter, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{adapter: a, logger: logger}
}

// Run executes every assertion and returns one result per assertion, in
// input order. An assertion whose query errors is reported as failed with
// the error attached; it never aborts the remaining assertions.
func (g *Gate) Run(ctx context.Context, assertions []Assertion) []Result {
	results := make([]Result, 0, len(assertions))
	for _, a := range assertions {
		start := time.Now()
		result := g.runOne(ctx, a)
		if result.Passed {
			g.logger.Debug("assertion passed",
				"assertion", a.Name,
				"model", a.Model,
				"duration", time.Since(start))
		} else {
			g.logger.Warn("assertion failed",
				"assertion", a.Name,
				"model", a.Model,
				"failed_rows", result.FailedRows,
				"error", result.Err)
		}
		results = append(results, result)
	}
	return results
}

func (g *Gate) runOne(ctx context.Context, a Assertion) Result {
	result := Result{Assertion: a}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS failing", a.Query)
	rows, err := g.adapter.Query(ctx, countQuery)
	if err != nil {
		result.Err = fmt.Errorf("assertion %s: %w", a.Name, err)
		return result
	}
	if rows.Next() {
		if err := rows.Scan(&result.FailedRows); err != nil {
			rows.Close()
			result.Err = fmt.Errorf("assertion %s: %w", a.Name, err)
			return result
		}
	}
	if err := rows.Close(); err != nil {
		result.Err = fmt.Errorf("assertion %s: %w", a.Name, err)
		return result
	}

	if result.FailedRows == 0 {
		result.Passed = true
		return result
	}

	sample, err := g.fetchSample(ctx, a)
	if err != nil {
		// The failure count stands; only the sample is missing.
		g.logger.Warn("could not fetch failure sample", "assertion", a.Name, "error", err)
	} else {
		result.Sample = sample
	}
	return result
}

func (g *Gate) fetchSample(ctx context.Context, a Assertion) ([]string, error) {
	sampleQuery := fmt.Sprintf("SELECT * FROM (%s) AS failing LIMIT %d", a.Query, SampleLimit)
	rows, err := g.adapter.Query(ctx, sampleQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var sample []string
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		parts := make([]string, len(cols))
		for i, col := range cols {
			parts[i] = fmt.Sprintf("%s=%s", col, renderValue(values[i]))
		}
		sample = append(sample, strings.Join(parts, " "))
	}
	return sample, rows.Err()
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Summary condenses a result set: total, passed, failed counts.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// Summarize counts passed and failed results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

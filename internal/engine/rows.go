package engine

// rows.go - materialization of row-generating models (the date dimension).
// Generated relations are written with literal INSERT batches so the path
// works identically on every adapter.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/forge-data/crmforge/pkg/core"
)

// insertBatchSize bounds how many rows one INSERT statement carries.
const insertBatchSize = 500

// materializeRows writes a generated relation. Table-materialized models
// write to their staging name like every other persisted model; ephemeral
// ones materialize as a build-local table under the final name.
func (e *Engine) materializeRows(ctx context.Context, m *core.Model) (int64, error) {
	bc := core.NewBuildContext(e.project, e.dialect, nil)
	rel, err := m.Rows(bc)
	if err != nil {
		return 0, err
	}
	if len(rel.Columns) == 0 {
		return 0, fmt.Errorf("generated relation has no columns")
	}

	target := m.RelationName()
	if m.Materialization() == core.MaterializationTable {
		target = stagingName(m)
	}

	defs := make([]string, len(rel.Columns))
	names := make([]string, len(rel.Columns))
	for i, c := range rel.Columns {
		defs[i] = fmt.Sprintf("%s %s", c.Name, c.Type)
		names[i] = c.Name
	}

	if err := e.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", target)); err != nil {
		return 0, fmt.Errorf("failed to drop stale relation %s: %w", target, err)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", target, strings.Join(defs, ", "))
	if err := e.db.Exec(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}

	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", target, strings.Join(names, ", "))
	for start := 0; start < len(rel.Rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rel.Rows) {
			end = len(rel.Rows)
		}

		tuples := make([]string, 0, end-start)
		for _, row := range rel.Rows[start:end] {
			if len(row) != len(rel.Columns) {
				return 0, fmt.Errorf("generated row has %d values, want %d", len(row), len(rel.Columns))
			}
			values := make([]string, len(row))
			for i, v := range row {
				values[i] = sqlLiteral(v)
			}
			tuples = append(tuples, "("+strings.Join(values, ", ")+")")
		}
		if err := e.db.Exec(ctx, prefix+strings.Join(tuples, ", ")); err != nil {
			return 0, fmt.Errorf("failed to insert generated rows into %s: %w", target, err)
		}
	}

	return int64(len(rel.Rows)), nil
}

// sqlLiteral renders a Go value as a SQL literal.
func sqlLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case time.Time:
		return fmt.Sprintf("DATE '%s'", val.Format("2006-01-02"))
	default:
		return fmt.Sprintf("%v", val)
	}
}

package engine

// materializations.go - how each materialization policy hits the warehouse.
//
// Ephemeral (view) models are created under their final names and dropped
// at the end of the build. Persisted (table) models are built under a
// staging name and renamed into place in one transaction once every model
// has succeeded, so readers keep seeing the previous version until the
// whole build commits.

import (
	"context"
	"fmt"

	"github.com/forge-data/crmforge/internal/dag"
	"github.com/forge-data/crmforge/pkg/core"
)

// stagingSuffix marks the build-in-progress copy of a persisted relation.
const stagingSuffix = "__tmp"

func stagingName(m *core.Model) string {
	return m.RelationName() + stagingSuffix
}

// materialize executes one model according to its policy and returns the
// affected row count (0 for views).
func (e *Engine) materialize(ctx context.Context, p *preparedModel, opts BuildOptions) (int64, error) {
	m := p.model

	if m.Rows != nil {
		return e.materializeRows(ctx, m)
	}

	switch m.Materialization() {
	case core.MaterializationView:
		return e.executeView(ctx, m.RelationName(), p.sql)
	case core.MaterializationTable:
		return e.executeTable(ctx, stagingName(m), p.sql)
	default:
		return 0, fmt.Errorf("unknown materialization %q", m.Materialization())
	}
}

// executeTable creates or replaces a table from a query.
func (e *Engine) executeTable(ctx context.Context, relation, sql string) (int64, error) {
	if err := e.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", relation)); err != nil {
		return 0, fmt.Errorf("failed to drop stale relation %s: %w", relation, err)
	}
	if err := e.db.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS %s", relation, sql)); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", relation, err)
	}
	return e.countRows(ctx, relation)
}

// executeView creates or replaces a view from a query.
func (e *Engine) executeView(ctx context.Context, relation, sql string) (int64, error) {
	if err := e.db.Exec(ctx, fmt.Sprintf("DROP VIEW IF EXISTS %s", relation)); err != nil {
		return 0, fmt.Errorf("failed to drop stale view %s: %w", relation, err)
	}
	if err := e.db.Exec(ctx, fmt.Sprintf("CREATE VIEW %s AS %s", relation, sql)); err != nil {
		return 0, fmt.Errorf("failed to create view %s: %w", relation, err)
	}
	return 0, nil
}

func (e *Engine) countRows(ctx context.Context, relation string) (int64, error) {
	rows, err := e.db.Query(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", relation))
	if err != nil {
		return 0, nil // relation exists, count is best-effort
	}
	defer func() { _ = rows.Close() }()

	var count int64
	if rows.Next() {
		_ = rows.Scan(&count)
	}
	return count, nil
}

// ensureSchemas creates the warehouse schemas the build set writes into.
func (e *Engine) ensureSchemas(ctx context.Context, sorted []*dag.Node) error {
	seen := make(map[string]bool)
	for _, node := range sorted {
		schema := node.Model.Layer.Schema()
		if seen[schema] {
			continue
		}
		seen[schema] = true
		if err := e.db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}
	return nil
}

// dropPersistedTargets implements full refresh: the final relations are
// removed before the build instead of being replaced at the end.
func (e *Engine) dropPersistedTargets(ctx context.Context, sorted []*dag.Node, inBuild map[string]bool) error {
	// Reverse topological order so dependents drop before dependencies.
	for i := len(sorted) - 1; i >= 0; i-- {
		m := sorted[i].Model
		if !inBuild[m.Name] || m.Materialization() != core.MaterializationTable {
			continue
		}
		if err := e.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", m.RelationName())); err != nil {
			return fmt.Errorf("failed to drop %s for full refresh: %w", m.RelationName(), err)
		}
	}
	return nil
}

// swapPersisted renames every staged table into place in one transaction.
// This is the only point of the build where previously persisted relations
// are touched.
func (e *Engine) swapPersisted(ctx context.Context, sorted []*dag.Node, inBuild map[string]bool, fullRefresh bool) error {
	var persisted []*core.Model
	for _, node := range sorted {
		m := node.Model
		if inBuild[m.Name] && m.Materialization() == core.MaterializationTable {
			persisted = append(persisted, m)
		}
	}
	if len(persisted) == 0 {
		return nil
	}

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin swap transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range persisted {
		if !fullRefresh {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", m.RelationName())); err != nil {
				return fmt.Errorf("failed to drop previous %s: %w", m.RelationName(), err)
			}
		}
		renameSQL := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", stagingName(m), m.Name)
		if _, err := tx.ExecContext(ctx, renameSQL); err != nil {
			return fmt.Errorf("failed to swap %s into place: %w", m.RelationName(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit swap: %w", err)
	}
	e.logger.Debug("persisted relations swapped", "count", len(persisted))
	return nil
}

// cleanupArtifacts discards everything the failed or cancelled build
// created: staged tables and ephemeral relations. Final persisted relations
// from earlier builds are never touched here.
func (e *Engine) cleanupArtifacts(ctx context.Context, sorted []*dag.Node, inBuild map[string]bool) {
	for i := len(sorted) - 1; i >= 0; i-- {
		m := sorted[i].Model
		if !inBuild[m.Name] {
			continue
		}
		if m.Materialization() == core.MaterializationTable {
			_ = e.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", stagingName(m)))
		} else {
			e.dropEphemeralRelation(ctx, m)
		}
	}
}

// dropEphemeral removes all view-materialized relations at the end of a
// successful build; they exist only for the build and the gate.
func (e *Engine) dropEphemeral(ctx context.Context, sorted []*dag.Node) {
	for i := len(sorted) - 1; i >= 0; i-- {
		m := sorted[i].Model
		if m.Materialization() == core.MaterializationView {
			e.dropEphemeralRelation(ctx, m)
		}
	}
}

func (e *Engine) dropEphemeralRelation(ctx context.Context, m *core.Model) {
	// Row-generating ephemeral models materialize as tables.
	if m.Rows != nil {
		_ = e.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", m.RelationName()))
		return
	}
	_ = e.db.Exec(ctx, fmt.Sprintf("DROP VIEW IF EXISTS %s", m.RelationName()))
}

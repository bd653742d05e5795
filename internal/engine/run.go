package engine

// run.go - build orchestration: selection, two-phase execution, atomic swap.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forge-data/crmforge/internal/validate"
	"github.com/forge-data/crmforge/pkg/core"
)

// BuildOptions control which models a build covers and how persisted
// relations are replaced.
type BuildOptions struct {
	// Select restricts the build to the named models. Empty builds all.
	Select []string
	// Downstream additionally includes everything depending on the
	// selection.
	Downstream bool
	// Upstream additionally includes everything the selection depends on.
	Upstream bool
	// FullRefresh drops persisted targets up front instead of replacing
	// them at the end.
	FullRefresh bool
	// SkipValidate skips the post-build assertion gate.
	SkipValidate bool
}

// ModelResult is the per-model outcome of a build.
type ModelResult struct {
	Model        string
	Status       core.ModelRunStatus
	RowsAffected int64
	Duration     time.Duration
	Err          error
}

// BuildResult is the full outcome of one build invocation.
type BuildResult struct {
	Run        *core.Run
	Models     []ModelResult
	Assertions []validate.Result
}

// Failed reports whether any model failed or any assertion failed.
func (r *BuildResult) Failed() bool {
	for _, m := range r.Models {
		if m.Status == core.ModelRunStatusFailed {
			return true
		}
	}
	for _, a := range r.Assertions {
		if !a.Passed {
			return true
		}
	}
	return false
}

// preparedModel is a model whose compute was rendered successfully and is
// ready to execute.
type preparedModel struct {
	model    *core.Model
	modelRun *core.ModelRun
	sql      string // empty for row-generating models
}

// Build executes the selected models in dependency order and then runs the
// validation gate. Persisted relations from earlier successful builds stay
// untouched unless the whole build succeeds.
func (e *Engine) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	e.logger.Info("starting build", "target", e.target, "select", opts.Select,
		"full_refresh", opts.FullRefresh)

	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}

	buildSet, err := e.resolveSelection(opts)
	if err != nil {
		return nil, err
	}

	sub := e.graph.Subgraph(buildSet)
	sorted, err := sub.TopologicalSort()
	if err != nil {
		return nil, err
	}
	levels, err := sub.ExecutionLevels()
	if err != nil {
		return nil, err
	}

	run, err := e.store.CreateRun(e.target)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	result := &BuildResult{Run: run}

	inBuild := make(map[string]bool, len(buildSet))
	for _, name := range buildSet {
		inBuild[name] = true
	}
	bc := core.NewBuildContext(e.project, e.dialect, e.buildResolver(inBuild))

	// Phase 1: render every compute up front so a bad model fails the
	// build before anything touches the warehouse.
	prepared := make(map[string]*preparedModel, len(sorted))
	var renderErrs []error
	for _, node := range sorted {
		m := node.Model
		mr := &core.ModelRun{RunID: run.ID, ModelName: m.Name, Status: core.ModelRunStatusPending}
		if err := e.store.RecordModelRun(mr); err != nil {
			return nil, fmt.Errorf("failed to record model run: %w", err)
		}

		p := &preparedModel{model: m, modelRun: mr}
		if m.SQL != nil {
			sql, err := m.SQL(bc)
			if err != nil {
				renderErr := &core.ComputeError{Model: m.Name, Err: err}
				renderErrs = append(renderErrs, renderErr)
				_ = e.store.UpdateModelRun(mr.ID, core.ModelRunStatusFailed, 0, renderErr.Error(), 0)
				result.Models = append(result.Models, ModelResult{
					Model: m.Name, Status: core.ModelRunStatusFailed, Err: renderErr,
				})
				continue
			}
			p.sql = sql
		}
		prepared[m.Name] = p
	}

	if len(renderErrs) > 0 {
		for _, node := range sorted {
			p, ok := prepared[node.Model.Name]
			if !ok {
				continue
			}
			_ = e.store.UpdateModelRun(p.modelRun.ID, core.ModelRunStatusSkipped, 0,
				"build aborted: other models failed to render", 0)
			result.Models = append(result.Models, ModelResult{
				Model: p.model.Name, Status: core.ModelRunStatusSkipped,
			})
		}
		err := errors.Join(renderErrs...)
		_ = e.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error(), 0)
		result.Run, _ = e.store.GetRun(run.ID)
		return result, err
	}

	// Phase 2: execute level by level.
	setupCtx := context.WithoutCancel(ctx)
	if err := e.ensureSchemas(setupCtx, sorted); err != nil {
		_ = e.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error(), 0)
		result.Run, _ = e.store.GetRun(run.ID)
		return result, err
	}
	if opts.FullRefresh {
		if err := e.dropPersistedTargets(setupCtx, sorted, inBuild); err != nil {
			_ = e.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error(), 0)
			result.Run, _ = e.store.GetRun(run.ID)
			return result, err
		}
	}

	buildErr, cancelled := e.executeLevels(ctx, levels, prepared, opts, result)

	if buildErr != nil || cancelled {
		e.cleanupArtifacts(context.WithoutCancel(ctx), sorted, inBuild)

		status := core.RunStatusFailed
		msg := ""
		if buildErr != nil {
			msg = buildErr.Error()
		}
		if cancelled {
			status = core.RunStatusCancelled
			if msg == "" {
				msg = "build cancelled"
			}
			if buildErr == nil {
				buildErr = context.Canceled
			}
		}
		_ = e.store.CompleteRun(run.ID, status, msg, 0)
		result.Run, _ = e.store.GetRun(run.ID)
		e.logger.Error("build failed", "run_id", run.ID, "error", msg)
		return result, buildErr
	}

	// All models built; replace persisted relations atomically.
	swapCtx := context.WithoutCancel(ctx)
	if err := e.swapPersisted(swapCtx, sorted, inBuild, opts.FullRefresh); err != nil {
		e.cleanupArtifacts(swapCtx, sorted, inBuild)
		_ = e.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error(), 0)
		result.Run, _ = e.store.GetRun(run.ID)
		return result, err
	}

	if !opts.SkipValidate {
		result.Assertions = e.runGate(swapCtx, run.ID, inBuild)
	}

	// Ephemeral relations are build-internal; drop them once the gate has
	// run.
	e.dropEphemeral(swapCtx, sorted)

	failedChecks := validate.Summarize(result.Assertions).Failed
	_ = e.store.CompleteRun(run.ID, core.RunStatusCompleted, "", failedChecks)
	result.Run, _ = e.store.GetRun(run.ID)
	e.logger.Info("build completed", "run_id", run.ID, "models", len(sorted),
		"failed_assertions", failedChecks)
	return result, nil
}

// resolveSelection expands BuildOptions into the concrete set of models to
// build. Ephemeral upstreams of the selection are always included: their
// relations are discarded at the end of every build, so anything reading
// them must rebuild them.
func (e *Engine) resolveSelection(opts BuildOptions) ([]string, error) {
	if len(opts.Select) == 0 {
		all := make([]string, 0, e.registry.Count())
		for _, m := range e.registry.All() {
			all = append(all, m.Name)
		}
		return all, nil
	}

	set := make(map[string]bool)
	for _, name := range opts.Select {
		if _, ok := e.registry.Get(name); !ok {
			return nil, &core.ConfigurationError{
				Field:  "select",
				Reason: fmt.Sprintf("unknown model %q", name),
			}
		}
		set[name] = true
	}

	if opts.Downstream {
		for _, name := range e.graph.Downstream(opts.Select) {
			set[name] = true
		}
	}
	if opts.Upstream {
		for _, name := range opts.Select {
			for _, up := range e.graph.Upstream(name) {
				set[up] = true
			}
		}
	}

	// Ephemeral upstream closure.
	for changed := true; changed; {
		changed = false
		for name := range set {
			for _, dep := range e.graph.Dependencies(name) {
				if set[dep] {
					continue
				}
				m, _ := e.registry.Get(dep)
				if m != nil && m.Materialization() == core.MaterializationView {
					set[dep] = true
					changed = true
				}
			}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// buildResolver returns the ref resolver for this build: persisted models
// being rebuilt resolve to their staging name so the previous table stays
// queryable until the swap; everything else resolves to its final name.
func (e *Engine) buildResolver(inBuild map[string]bool) func(string) (string, error) {
	return func(name string) (string, error) {
		m, ok := e.registry.Get(name)
		if !ok {
			return "", fmt.Errorf("unknown model %q", name)
		}
		if inBuild[name] && m.Materialization() == core.MaterializationTable {
			return stagingName(m), nil
		}
		return m.RelationName(), nil
	}
}

// executeLevels runs each execution level with bounded parallelism.
// Returns the first error and whether the build was cancelled between
// models. In-flight executions always run to completion; cancellation is
// only observed at level and model boundaries.
func (e *Engine) executeLevels(ctx context.Context, levels [][]string,
	prepared map[string]*preparedModel, opts BuildOptions, result *BuildResult) (error, bool) {

	var firstErr error
	cancelled := false

	skipFrom := func(fromLevel int, reason string) {
		for _, later := range levels[fromLevel:] {
			for _, name := range later {
				p := prepared[name]
				_ = e.store.UpdateModelRun(p.modelRun.ID, core.ModelRunStatusSkipped, 0,
					reason, 0)
				result.Models = append(result.Models, ModelResult{
					Model: name, Status: core.ModelRunStatusSkipped,
				})
			}
		}
	}

	for i, level := range levels {
		if ctx.Err() != nil {
			cancelled = true
			skipFrom(i, "build cancelled")
			break
		}

		var (
			g        errgroup.Group
			levelErr error
		)
		g.SetLimit(e.project.BuildConcurrency)

		levelResults := make([]ModelResult, len(level))
		for idx, name := range level {
			idx, name := idx, name
			p := prepared[name]
			g.Go(func() error {
				// Writes are never interrupted mid-flight; a half-written
				// table would poison the swap.
				mr := e.executeModel(context.WithoutCancel(ctx), p, opts)
				levelResults[idx] = mr
				if mr.Err != nil {
					return mr.Err
				}
				return nil
			})
		}
		levelErr = g.Wait()
		result.Models = append(result.Models, levelResults...)

		if levelErr != nil {
			firstErr = levelErr
			skipFrom(i+1, "upstream failed")
			break
		}
	}

	return firstErr, cancelled
}

// executeModel materializes one model and records its outcome.
func (e *Engine) executeModel(ctx context.Context, p *preparedModel, opts BuildOptions) ModelResult {
	m := p.model
	start := time.Now()
	_ = e.store.UpdateModelRun(p.modelRun.ID, core.ModelRunStatusRunning, 0, "", 0)
	e.logger.Debug("executing model", "model", m.Name,
		"materialization", m.Materialization())

	rows, err := e.materialize(ctx, p, opts)
	duration := time.Since(start)

	if err != nil {
		computeErr := &core.ComputeError{Model: m.Name, Err: err}
		_ = e.store.UpdateModelRun(p.modelRun.ID, core.ModelRunStatusFailed, 0,
			computeErr.Error(), duration.Milliseconds())
		e.logger.Error("model failed", "model", m.Name, "error", err)
		return ModelResult{Model: m.Name, Status: core.ModelRunStatusFailed,
			Duration: duration, Err: computeErr}
	}

	_ = e.store.UpdateModelRun(p.modelRun.ID, core.ModelRunStatusSuccess, rows, "",
		duration.Milliseconds())
	e.logger.Info("model built", "model", m.Name, "rows", rows,
		"duration", duration)
	return ModelResult{Model: m.Name, Status: core.ModelRunStatusSuccess,
		RowsAffected: rows, Duration: duration}
}

// runGate executes the assertion set scoped to the models in this build and
// records every result.
func (e *Engine) runGate(ctx context.Context, runID string, inBuild map[string]bool) []validate.Result {
	var scoped []validate.Assertion
	for _, a := range e.assertions {
		if inBuild[a.Model] {
			scoped = append(scoped, a)
		}
	}
	if len(scoped) == 0 {
		return nil
	}

	gate := validate.New(e.db, e.logger)
	results := gate.Run(ctx, scoped)

	for _, r := range results {
		ar := &core.AssertionResult{
			RunID:      runID,
			Name:       r.Assertion.Name,
			Model:      r.Assertion.Model,
			Category:   r.Assertion.Category,
			Passed:     r.Passed,
			FailedRows: r.FailedRows,
		}
		if len(r.Sample) > 0 {
			for i, line := range r.Sample {
				if i > 0 {
					ar.Sample += "\n"
				}
				ar.Sample += line
			}
		}
		if r.Err != nil {
			ar.Error = r.Err.Error()
		}
		_ = e.store.RecordAssertionResult(ar)
	}
	return results
}

package engine

import (
	"context"
	"fmt"

	"github.com/forge-data/crmforge/internal/validate"
	"github.com/forge-data/crmforge/pkg/core"
)

// Validate runs the quality gate alone against the current relations,
// without rebuilding anything. Results are recorded under a new run.
func (e *Engine) Validate(ctx context.Context) ([]validate.Result, error) {
	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}

	run, err := e.store.CreateRun(e.target)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	inScope := make(map[string]bool, len(e.assertions))
	for _, a := range e.assertions {
		inScope[a.Model] = true
	}
	results := e.runGate(ctx, run.ID, inScope)

	_ = e.store.CompleteRun(run.ID, core.RunStatusCompleted, "", validate.Summarize(results).Failed)
	return results, nil
}

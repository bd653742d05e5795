package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/forge-data/crmforge/internal/cli/output"
	"github.com/forge-data/crmforge/internal/engine"
	"github.com/forge-data/crmforge/internal/validate"
)

type runOptions struct {
	Select       string
	Downstream   bool
	Upstream     bool
	FullRefresh  bool
	SkipValidate bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build models in dependency order",
		Long: `Execute models in dependency order and run the data quality gate.

By default, builds all registered models. Use --select to build specific
models; ephemeral upstreams of the selection are rebuilt automatically.
Exits non-zero if any model fails or any quality check fails.`,
		Example: `  # Build everything
  crmforge run

  # Build one mart and whatever ephemeral upstreams it needs
  crmforge run --select fct_opportunities

  # Rebuild a staging model and everything downstream of it
  crmforge run --select stg_salesforce__accounts --downstream

  # Drop and rebuild all persisted relations
  crmforge run --full-refresh`,
		Aliases: []string{"build"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Select, "select", "s", "", "Comma-separated list of models to build")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", false, "Include downstream dependents of the selection")
	cmd.Flags().BoolVar(&opts.Upstream, "upstream", false, "Include upstream dependencies of the selection")
	cmd.Flags().BoolVar(&opts.FullRefresh, "full-refresh", false, "Drop persisted relations before rebuilding")
	cmd.Flags().BoolVar(&opts.SkipValidate, "skip-validate", false, "Skip the post-build quality gate")

	return cmd
}

func runRun(cmd *cobra.Command, opts *runOptions) error {
	cfg := getConfig(cmd)
	r := getRenderer(cmd)

	eng, err := createEngine(cfg, getLogger(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	buildOpts := engine.BuildOptions{
		Downstream:   opts.Downstream,
		Upstream:     opts.Upstream,
		FullRefresh:  opts.FullRefresh,
		SkipValidate: opts.SkipValidate,
	}
	if opts.Select != "" {
		for _, name := range strings.Split(opts.Select, ",") {
			if name = strings.TrimSpace(name); name != "" {
				buildOpts.Select = append(buildOpts.Select, name)
			}
		}
	}

	start := time.Now()
	result, err := eng.Build(cmd.Context(), buildOpts)
	if err != nil && result == nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		if jsonErr := r.JSON(buildReport(result, time.Since(start))); jsonErr != nil {
			return jsonErr
		}
	} else {
		renderBuild(r, result, time.Since(start))
	}

	if err != nil {
		return err
	}
	if result.Failed() {
		return errors.New("build finished with failures")
	}
	return nil
}

func renderBuild(r *output.Renderer, result *engine.BuildResult, elapsed time.Duration) {
	r.Header(fmt.Sprintf("Run %s", result.Run.ID))

	t := r.NewTable()
	t.AppendHeader(table.Row{"Model", "Status", "Rows", "Time"})
	for _, m := range result.Models {
		rows := "-"
		if m.Status == "success" {
			rows = fmt.Sprintf("%d", m.RowsAffected)
		}
		t.AppendRow(table.Row{m.Model, r.Status(string(m.Status)), rows, m.Duration.Round(time.Millisecond)})
	}
	t.Render()

	if len(result.Assertions) > 0 {
		r.Println("")
		r.Header("Quality checks")
		renderAssertions(r, result.Assertions)
	}

	r.Println("")
	r.Printf("Run %s: %s in %s\n", result.Run.ID, r.Status(string(result.Run.Status)), elapsed.Round(time.Millisecond))
}

func renderAssertions(r *output.Renderer, results []validate.Result) {
	t := r.NewTable()
	t.AppendHeader(table.Row{"Check", "Model", "Status", "Failing rows"})
	for _, a := range results {
		status := "passed"
		failing := "-"
		if a.Err != nil {
			status = "error"
		} else if !a.Passed {
			status = "failed"
			failing = fmt.Sprintf("%d", a.FailedRows)
		}
		t.AppendRow(table.Row{a.Assertion.Name, a.Assertion.Model, r.Status(status), failing})
	}
	t.Render()

	for _, a := range results {
		if a.Passed || len(a.Sample) == 0 {
			continue
		}
		r.Println("")
		r.Muted(fmt.Sprintf("%s sample:", a.Assertion.Name))
		for _, line := range a.Sample {
			r.Muted("  " + line)
		}
	}
}

// report types for --output json

type modelReport struct {
	Model        string `json:"model"`
	Status       string `json:"status"`
	RowsAffected int64  `json:"rows_affected"`
	DurationMS   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
}

type assertionReport struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Category   string `json:"category"`
	Passed     bool   `json:"passed"`
	FailedRows int64  `json:"failed_rows"`
	Error      string `json:"error,omitempty"`
}

type runReport struct {
	RunID            string            `json:"run_id"`
	Status           string            `json:"status"`
	Models           []modelReport     `json:"models"`
	Assertions       []assertionReport `json:"assertions,omitempty"`
	FailedAssertions int               `json:"failed_assertions"`
	ElapsedMS        int64             `json:"elapsed_ms"`
}

func buildReport(result *engine.BuildResult, elapsed time.Duration) runReport {
	rep := runReport{
		RunID:            result.Run.ID,
		Status:           string(result.Run.Status),
		FailedAssertions: result.Run.FailedAssertions,
		ElapsedMS:        elapsed.Milliseconds(),
	}
	for _, m := range result.Models {
		mr := modelReport{
			Model:        m.Model,
			Status:       string(m.Status),
			RowsAffected: m.RowsAffected,
			DurationMS:   m.Duration.Milliseconds(),
		}
		if m.Err != nil {
			mr.Error = m.Err.Error()
		}
		rep.Models = append(rep.Models, mr)
	}
	for _, a := range result.Assertions {
		ar := assertionReport{
			Name:       a.Assertion.Name,
			Model:      a.Assertion.Model,
			Category:   a.Assertion.Category,
			Passed:     a.Passed,
			FailedRows: a.FailedRows,
		}
		if a.Err != nil {
			ar.Error = a.Err.Error()
		}
		rep.Assertions = append(rep.Assertions, ar)
	}
	return rep
}

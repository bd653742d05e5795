package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forge-data/crmforge/internal/cli/output"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run quality checks against current relations",
		Long: `Run the data quality gate without rebuilding anything.

Checks uniqueness, null, referential, range, value-set, and expression
assertions against the persisted marts as they currently stand. Exits
non-zero if any check fails.`,
		Example: `  # Check the current warehouse state
  crmforge validate

  # Machine-readable results
  crmforge validate --output json`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg := getConfig(cmd)
	r := getRenderer(cmd)

	eng, err := createEngine(cfg, getLogger(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	results, err := eng.Validate(cmd.Context())
	if err != nil {
		return err
	}

	failed := 0
	for _, a := range results {
		if !a.Passed {
			failed++
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		var reps []assertionReport
		for _, a := range results {
			rep := assertionReport{
				Name:       a.Assertion.Name,
				Model:      a.Assertion.Model,
				Category:   a.Assertion.Category,
				Passed:     a.Passed,
				FailedRows: a.FailedRows,
			}
			if a.Err != nil {
				rep.Error = a.Err.Error()
			}
			reps = append(reps, rep)
		}
		if jsonErr := r.JSON(struct {
			Checks []assertionReport `json:"checks"`
			Failed int               `json:"failed"`
		}{reps, failed}); jsonErr != nil {
			return jsonErr
		}
	} else {
		r.Header(fmt.Sprintf("Quality checks (%d)", len(results)))
		renderAssertions(r, results)
	}

	if failed > 0 {
		return errors.New("quality checks failed")
	}
	return nil
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forge-data/crmforge/internal/cli/output"
)

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dag",
		Short: "Show the dependency graph",
		Long: `Display the model dependency graph grouped by execution level.

Models within a level have no dependencies on each other and may build
in parallel; each level waits for the previous one.`,
		Example: `  # Show the DAG
  crmforge dag

  # Output as JSON
  crmforge dag --output json`,
		RunE: runDAG,
	}
}

func runDAG(cmd *cobra.Command, _ []string) error {
	cfg := getConfig(cmd)
	r := getRenderer(cmd)

	eng, err := createEngine(cfg, getLogger(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	graph := eng.Graph()
	levels, err := graph.ExecutionLevels()
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(struct {
			Nodes  int        `json:"nodes"`
			Edges  int        `json:"edges"`
			Levels [][]string `json:"levels"`
		}{graph.NodeCount(), graph.EdgeCount(), levels})
	}

	r.Header(fmt.Sprintf("Dependency graph (%d models, %d edges)", graph.NodeCount(), graph.EdgeCount()))
	for i, level := range levels {
		r.Printf("Level %d: %s\n", i, strings.Join(level, ", "))
	}
	return nil
}

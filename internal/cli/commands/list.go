package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/forge-data/crmforge/internal/cli/output"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered models",
		Long: `List all registered models with their layer, materialization policy,
and upstream references.`,
		Example: `  # List all models
  crmforge list

  # List models as JSON
  crmforge list --output json`,
		RunE: runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg := getConfig(cmd)
	r := getRenderer(cmd)

	eng, err := createEngine(cfg, getLogger(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	models := eng.Registry().All()

	if r.EffectiveMode() == output.ModeJSON {
		type modelInfo struct {
			Name         string   `json:"name"`
			Layer        string   `json:"layer"`
			Materialized string   `json:"materialized"`
			Relation     string   `json:"relation"`
			Refs         []string `json:"refs,omitempty"`
		}
		infos := make([]modelInfo, 0, len(models))
		for _, m := range models {
			infos = append(infos, modelInfo{
				Name:         m.Name,
				Layer:        string(m.Layer),
				Materialized: string(m.Materialization()),
				Relation:     m.RelationName(),
				Refs:         m.Refs,
			})
		}
		return r.JSON(struct {
			Models []modelInfo `json:"models"`
		}{infos})
	}

	r.Header(fmt.Sprintf("Models (%d)", len(models)))
	t := r.NewTable()
	t.AppendHeader(table.Row{"Model", "Layer", "Materialized", "Refs"})
	for _, m := range models {
		refs := "-"
		if len(m.Refs) > 0 {
			refs = strings.Join(m.Refs, ", ")
		}
		t.AppendRow(table.Row{m.Name, m.Layer, m.Materialization(), refs})
	}
	t.Render()
	return nil
}

package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forge-data/crmforge/internal/cli/output"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load raw CSV extracts into the warehouse",
		Long: `Load CSV files from the seeds directory into the raw schema.

Each <table>.csv becomes raw.<table>. An optional schema.yml alongside
the CSVs declares column types; untyped columns load as text.`,
		Example: `  # Load all seeds
  crmforge seed

  # Load from a specific directory
  crmforge seed --seeds-dir ./extracts`,
		RunE: runSeed,
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg := getConfig(cmd)
	r := getRenderer(cmd)

	eng, err := createEngine(cfg, getLogger(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	files, err := seedFiles(cfg.SeedsDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		r.Muted("No seed files found in " + cfg.SeedsDir)
		return nil
	}

	if err := eng.LoadSeeds(cmd.Context()); err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		type seedInfo struct {
			Table string `json:"table"`
			File  string `json:"file"`
		}
		seeds := make([]seedInfo, 0, len(files))
		for _, f := range files {
			seeds = append(seeds, seedInfo{Table: "raw." + strings.TrimSuffix(f, ".csv"), File: f})
		}
		return r.JSON(struct {
			Seeds []seedInfo `json:"seeds"`
		}{seeds})
	}

	r.Header("Loaded seeds")
	for _, f := range files {
		r.Printf("  %s  %s\n", r.Status("loaded"), "raw."+strings.TrimSuffix(f, ".csv"))
	}
	r.Println("")
	r.Muted("Source: " + cfg.SeedsDir)
	return nil
}

// seedFiles returns the CSV file names in the seeds directory.
func seedFiles(seedsDir string) ([]string, error) {
	if seedsDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(seedsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

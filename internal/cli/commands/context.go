// Package commands implements the crmforge subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forge-data/crmforge/internal/cli/config"
	"github.com/forge-data/crmforge/internal/cli/output"
	"github.com/forge-data/crmforge/internal/engine"
	"github.com/forge-data/crmforge/internal/models"
)

type configKey struct{}
type rendererKey struct{}
type loggerKey struct{}

// WithConfig stores the loaded configuration in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithRenderer stores the output renderer in the context.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func getConfig(cmd *cobra.Command) *config.Config {
	if c, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		SeedsDir:    config.DefaultSeedsDir,
		StatePath:   config.DefaultStateFile,
		Environment: config.DefaultEnv,
	}
}

func getRenderer(cmd *cobra.Command) *output.Renderer {
	if r, ok := cmd.Context().Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
}

func getLogger(cmd *cobra.Command) *slog.Logger {
	if l, ok := cmd.Context().Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// createEngine assembles an engine from the loaded configuration with the
// full model catalog and assertion set.
func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	project, err := cfg.Project()
	if err != nil {
		return nil, err
	}

	if cfg.StatePath != "" && cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	r, err := models.NewRegistry()
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Project:    project,
		Adapter:    cfg.Adapter(),
		StatePath:  cfg.StatePath,
		Target:     cfg.Environment,
		SeedsDir:   cfg.SeedsDir,
		Registry:   r,
		Assertions: models.Assertions(),
		Logger:     logger,
	})
}

// Package engine orchestrates builds: it resolves the model graph, runs
// each model against the relation store according to its materialization
// policy, and hands the result to the validation gate. The warehouse
// connection is lazy; constructing an engine never touches the database.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/forge-data/crmforge/internal/dag"
	"github.com/forge-data/crmforge/internal/registry"
	"github.com/forge-data/crmforge/internal/state"
	"github.com/forge-data/crmforge/internal/validate"
	"github.com/forge-data/crmforge/pkg/adapter"
	"github.com/forge-data/crmforge/pkg/core"
	"github.com/forge-data/crmforge/pkg/dialect"
)

// Engine executes builds against one warehouse target.
type Engine struct {
	db          adapter.Adapter
	dbConfig    core.AdapterConfig
	dbConnected bool
	dbMu        sync.Mutex

	dialect *dialect.Dialect
	logger  *slog.Logger

	store      core.Store
	registry   *registry.Registry
	graph      *dag.Graph
	project    core.ProjectConfig
	target     string
	seedsDir   string
	assertions []validate.Assertion
}

// Config holds engine configuration.
type Config struct {
	// Project is the validated build configuration.
	Project core.ProjectConfig
	// Adapter is the warehouse connection configuration.
	Adapter core.AdapterConfig
	// StatePath is the path to the SQLite state database. ":memory:" is
	// valid and used by tests.
	StatePath string
	// Target names the warehouse target for run history (dev, prod).
	Target string
	// SeedsDir is the directory seed CSVs are loaded from.
	SeedsDir string
	// Registry is the model catalog. Required.
	Registry *registry.Registry
	// Assertions is the validation gate's check set.
	Assertions []validate.Assertion
	// Logger is optional; nil discards.
	Logger *slog.Logger
}

// New creates an engine. The model graph is resolved eagerly so reference
// and cycle errors surface before anything executes; the warehouse
// connection is deferred until the first build or seed load.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine requires a model registry")
	}
	if err := cfg.Project.Validate(); err != nil {
		return nil, err
	}

	graph, err := cfg.Registry.Graph()
	if err != nil {
		return nil, err
	}
	if hasCycle, path := graph.HasCycle(); hasCycle {
		return nil, &core.CyclicDependencyError{Cycle: path}
	}

	store := state.New(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state store: %w", err)
	}

	logger.Debug("engine initialized",
		"models", cfg.Registry.Count(), "target", cfg.Target, "adapter", cfg.Adapter.Type)

	return &Engine{
		dbConfig:   cfg.Adapter,
		logger:     logger,
		store:      store,
		registry:   cfg.Registry,
		graph:      graph,
		project:    cfg.Project,
		target:     cfg.Target,
		seedsDir:   cfg.SeedsDir,
		assertions: cfg.Assertions,
	}, nil
}

// ensureConnected connects the warehouse adapter on first use.
func (e *Engine) ensureConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	a, err := adapter.NewAdapter(e.dbConfig, e.logger)
	if err != nil {
		return err
	}
	if err := a.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}

	d, ok := dialect.Get(a.DialectName())
	if !ok {
		_ = a.Close()
		return fmt.Errorf("no dialect registered for adapter %q", a.DialectName())
	}

	e.db = a
	e.dialect = d
	e.dbConnected = true
	e.logger.Debug("connected to warehouse", "adapter", e.dbConfig.Type)
	return nil
}

// Graph exposes the resolved dependency graph (for the dag command).
func (e *Engine) Graph() *dag.Graph {
	return e.graph
}

// Registry exposes the model catalog.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Store exposes the run history store.
func (e *Engine) Store() core.Store {
	return e.store
}

// Close releases the warehouse connection and the state store.
func (e *Engine) Close() error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	var firstErr error
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			firstErr = err
		}
		e.db = nil
		e.dbConnected = false
	}
	if err := e.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

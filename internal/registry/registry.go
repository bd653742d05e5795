// Package registry provides the model catalog. Models register themselves
// under a unique name, and the registry materializes the dependency graph
// from their declared refs.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/forge-data/crmforge/internal/dag"
	"github.com/forge-data/crmforge/pkg/core"
)

// Registry holds the set of registered models.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*core.Model
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*core.Model),
	}
}

// Register adds a model to the registry. Names must be unique across layers.
func (r *Registry) Register(model *core.Model) error {
	if model == nil {
		return fmt.Errorf("cannot register nil model")
	}
	if model.Name == "" {
		return &core.ConfigurationError{Field: "model", Reason: "model name must not be empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[model.Name]; exists {
		return &core.ConfigurationError{
			Field:  model.Name,
			Reason: "model already registered under this name",
		}
	}
	r.byName[model.Name] = model
	return nil
}

// MustRegister registers a model and panics on error. Intended for the
// package-level catalog where a duplicate name is a programming error.
func (r *Registry) MustRegister(model *core.Model) {
	if err := r.Register(model); err != nil {
		panic(err)
	}
}

// Get returns a model by name.
func (r *Registry) Get(name string) (*core.Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	model, ok := r.byName[name]
	return model, ok
}

// All returns all registered models sorted by name.
func (r *Registry) All() []*core.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]*core.Model, 0, len(r.byName))
	for _, model := range r.byName {
		models = append(models, model)
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].Name < models[j].Name
	})
	return models
}

// ByLayer returns all models in the given layer sorted by name.
func (r *Registry) ByLayer(layer core.Layer) []*core.Model {
	var models []*core.Model
	for _, model := range r.All() {
		if model.Layer == layer {
			models = append(models, model)
		}
	}
	return models
}

// Count returns the number of registered models.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Graph builds the dependency graph from every registered model's refs.
// A ref naming an unregistered model is a configuration error; cycles
// surface as CyclicDependencyError from the graph operations downstream,
// except self-references which fail here.
func (r *Registry) Graph() (*dag.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g := dag.NewGraph()
	for name, model := range r.byName {
		g.AddNode(name, model)
	}

	// Sorted iteration keeps error reporting stable.
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		model := r.byName[name]
		for _, ref := range model.Refs {
			if _, exists := r.byName[ref]; !exists {
				return nil, &core.ConfigurationError{
					Field:     name,
					Reference: ref,
					Reason:    "ref does not match any registered model",
				}
			}
			if err := g.AddEdge(ref, name); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

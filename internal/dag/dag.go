// Package dag provides directed acyclic graph operations over the model
// dependency graph. It supports cycle detection, deterministic topological
// sorting, execution-level grouping, and upstream/downstream selection.
package dag

import (
	"fmt"
	"sort"

	"github.com/forge-data/crmforge/pkg/core"
)

// Node is a single model in the dependency graph.
type Node struct {
	// ID is the model name.
	ID string
	// Model is the registered model definition.
	Model *core.Model
}

// Graph is a directed acyclic graph of model dependencies.
type Graph struct {
	nodes      map[string]*Node
	dependents map[string][]string // model -> models that depend on it
	deps       map[string][]string // model -> models it depends on
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
	}
}

// AddNode adds a model to the graph. Adding an existing ID replaces its model.
func (g *Graph) AddNode(id string, model *core.Model) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Model: model}
		g.dependents[id] = []string{}
		g.deps[id] = []string{}
	} else {
		g.nodes[id].Model = model
	}
}

// AddEdge records that dependent depends on dependency. Both nodes must
// already exist.
func (g *Graph) AddEdge(dependencyID, dependentID string) error {
	if _, exists := g.nodes[dependencyID]; !exists {
		return fmt.Errorf("dependency node %q does not exist", dependencyID)
	}
	if _, exists := g.nodes[dependentID]; !exists {
		return fmt.Errorf("dependent node %q does not exist", dependentID)
	}
	if dependencyID == dependentID {
		return &core.CyclicDependencyError{Cycle: []string{dependencyID, dependentID}}
	}

	if !contains(g.dependents[dependencyID], dependentID) {
		g.dependents[dependencyID] = append(g.dependents[dependencyID], dependentID)
	}
	if !contains(g.deps[dependentID], dependencyID) {
		g.deps[dependentID] = append(g.deps[dependentID], dependencyID)
	}
	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Dependencies returns the direct dependencies of a model.
func (g *Graph) Dependencies(id string) []string {
	return g.deps[id]
}

// Dependents returns the direct dependents of a model.
func (g *Graph) Dependents(id string) []string {
	return g.dependents[id]
}

// AllNodes returns all nodes sorted by ID.
func (g *Graph) AllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.dependents {
		count += len(children)
	}
	return count
}

// HasCycle returns true if the graph contains a cycle, along with the cycle
// path (first node repeated at the end).
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, childID := range g.dependents[id] {
			if !visited[childID] {
				cameFrom[childID] = id
				if dfs(childID) {
					return true
				}
			} else if onStack[childID] {
				// Reconstruct the cycle back from the closing edge.
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = cameFrom[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	// Iterate in sorted order so the reported cycle is stable.
	for _, id := range sortedIDs(g.nodes) {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

// TopologicalSort returns nodes in dependency order: every model appears
// after all of its dependencies. Ties break alphabetically, so the order is
// deterministic across runs. Returns CyclicDependencyError on a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &core.CyclicDependencyError{Cycle: cyclePath}
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		deps := append([]string(nil), g.deps[id]...)
		sort.Strings(deps)
		for _, depID := range deps {
			visit(depID)
		}

		result = append(result, g.nodes[id])
	}

	for _, id := range sortedIDs(g.nodes) {
		visit(id)
	}
	return result, nil
}

// ExecutionLevels groups models by execution level. Models at level N depend
// only on models at levels below N, so each level can run in parallel once
// the previous one completes. Level 0 holds models with no dependencies.
func (g *Graph) ExecutionLevels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &core.CyclicDependencyError{Cycle: cyclePath}
	}

	assigned := make(map[string]int)

	var levelOf func(id string) int
	levelOf = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}

		deps := g.deps[id]
		if len(deps) == 0 {
			assigned[id] = 0
			return 0
		}

		maxDepLevel := 0
		for _, depID := range deps {
			if l := levelOf(depID); l > maxDepLevel {
				maxDepLevel = l
			}
		}

		level := maxDepLevel + 1
		assigned[id] = level
		return level
	}

	maxLevel := 0
	for id := range g.nodes {
		if level := levelOf(id); level > maxLevel {
			maxLevel = level
		}
	}
	if len(g.nodes) == 0 {
		return nil, nil
	}

	levels := make([][]string, maxLevel+1)
	for id, level := range assigned {
		levels[level] = append(levels[level], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Downstream returns the given models plus every model that transitively
// depends on them, sorted by ID.
func (g *Graph) Downstream(ids []string) []string {
	affected := make(map[string]bool)

	var mark func(id string)
	mark = func(id string) {
		if affected[id] {
			return
		}
		affected[id] = true
		for _, childID := range g.dependents[id] {
			mark(childID)
		}
	}

	for _, id := range ids {
		if _, exists := g.nodes[id]; exists {
			mark(id)
		}
	}
	return sortedKeys(affected)
}

// Upstream returns every model the given model transitively depends on,
// sorted by ID. The model itself is not included.
func (g *Graph) Upstream(id string) []string {
	upstream := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, depID := range g.deps[nodeID] {
			if !upstream[depID] {
				upstream[depID] = true
				mark(depID)
			}
		}
	}

	mark(id)
	return sortedKeys(upstream)
}

// Roots returns models with no dependencies, sorted by ID.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.deps[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns models with no dependents, sorted by ID.
func (g *Graph) Leaves() []string {
	var leaves []string
	for id := range g.nodes {
		if len(g.dependents[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Subgraph returns a new graph containing only the given models and the
// edges between them.
func (g *Graph) Subgraph(ids []string) *Graph {
	sub := NewGraph()
	included := make(map[string]bool)

	for _, id := range ids {
		if node, exists := g.nodes[id]; exists {
			included[id] = true
			sub.AddNode(id, node.Model)
		}
	}

	for id := range included {
		for _, childID := range g.dependents[id] {
			if included[childID] {
				_ = sub.AddEdge(id, childID)
			}
		}
	}
	return sub
}

func sortedIDs(nodes map[string]*Node) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}

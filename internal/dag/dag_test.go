package dag

import (
	"errors"
	"testing"

	"github.com/forge-data/crmforge/pkg/core"
)

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := NewGraph()

	g.AddNode("stg_salesforce__accounts", nil)
	g.AddNode("dim_accounts", nil)
	g.AddNode("agg_top_accounts", nil)

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}

	if err := g.AddEdge("stg_salesforce__accounts", "dim_accounts"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	if err := g.AddEdge("dim_accounts", "agg_top_accounts"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestGraph_AddEdge_DuplicateIsIdempotent(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)

	g.AddEdge("a", "b")
	g.AddEdge("a", "b")

	if g.EdgeCount() != 1 {
		t.Errorf("expected duplicate edge to be ignored, got %d edges", g.EdgeCount())
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)

	if err := g.AddEdge("a", "nonexistent"); err == nil {
		t.Error("expected error for nonexistent dependent node")
	}
	if err := g.AddEdge("nonexistent", "a"); err == nil {
		t.Error("expected error for nonexistent dependency node")
	}
}

func TestGraph_AddEdge_SelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)

	err := g.AddEdge("a", "a")
	if err == nil {
		t.Fatal("expected error for self-loop")
	}
	var cycleErr *core.CyclicDependencyError
	if !errors.As(err, &cycleErr) {
		t.Errorf("expected CyclicDependencyError, got %T", err)
	}
}

func TestGraph_DependenciesAndDependents(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)

	g.AddEdge("a", "b")
	g.AddEdge("a", "c")
	g.AddEdge("b", "c")

	if deps := g.Dependencies("c"); len(deps) != 2 {
		t.Errorf("expected c to have 2 dependencies, got %d", len(deps))
	}
	if deps := g.Dependents("a"); len(deps) != 2 {
		t.Errorf("expected a to have 2 dependents, got %d", len(deps))
	}
}

func TestGraph_HasCycle_NoCycle(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)

	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	if hasCycle, _ := g.HasCycle(); hasCycle {
		t.Error("expected no cycle in a linear chain")
	}
}

func TestGraph_HasCycle_TwoNodeCycle(t *testing.T) {
	g := NewGraph()
	g.AddNode("model_a", nil)
	g.AddNode("model_b", nil)

	g.AddEdge("model_a", "model_b")
	g.AddEdge("model_b", "model_a")

	hasCycle, path := g.HasCycle()
	if !hasCycle {
		t.Fatal("expected cycle between model_a and model_b")
	}
	if len(path) < 3 {
		t.Errorf("expected cycle path with closing node, got %v", path)
	}
	if path[0] != path[len(path)-1] {
		t.Errorf("expected cycle path to close on itself, got %v", path)
	}
}

func TestGraph_HasCycle_DiamondIsNotCycle(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id, nil)
	}
	// Diamond: a -> b -> d, a -> c -> d.
	g.AddEdge("a", "b")
	g.AddEdge("a", "c")
	g.AddEdge("b", "d")
	g.AddEdge("c", "d")

	if hasCycle, path := g.HasCycle(); hasCycle {
		t.Errorf("diamond incorrectly reported as cycle: %v", path)
	}
}

func TestGraph_TopologicalSort(t *testing.T) {
	g := NewGraph()
	g.AddNode("stg_accounts", nil)
	g.AddNode("stg_opportunities", nil)
	g.AddNode("int_opportunities__enriched", nil)
	g.AddNode("fct_opportunities", nil)

	g.AddEdge("stg_accounts", "int_opportunities__enriched")
	g.AddEdge("stg_opportunities", "int_opportunities__enriched")
	g.AddEdge("int_opportunities__enriched", "fct_opportunities")

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("topological sort failed: %v", err)
	}

	position := make(map[string]int)
	for i, node := range sorted {
		position[node.ID] = i
	}

	if position["stg_accounts"] > position["int_opportunities__enriched"] {
		t.Error("stg_accounts must sort before int_opportunities__enriched")
	}
	if position["stg_opportunities"] > position["int_opportunities__enriched"] {
		t.Error("stg_opportunities must sort before int_opportunities__enriched")
	}
	if position["int_opportunities__enriched"] > position["fct_opportunities"] {
		t.Error("int_opportunities__enriched must sort before fct_opportunities")
	}
}

func TestGraph_TopologicalSort_Deterministic(t *testing.T) {
	build := func() *Graph {
		g := NewGraph()
		for _, id := range []string{"z_model", "a_model", "m_model"} {
			g.AddNode(id, nil)
		}
		return g
	}

	first, err := build().TopologicalSort()
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := build().TopologicalSort()
		if err != nil {
			t.Fatalf("sort failed: %v", err)
		}
		for j := range first {
			if first[j].ID != again[j].ID {
				t.Fatalf("order changed between runs: %v vs %v", first, again)
			}
		}
	}

	// Independent nodes tie-break alphabetically.
	if first[0].ID != "a_model" || first[1].ID != "m_model" || first[2].ID != "z_model" {
		t.Errorf("expected alphabetical tie-break, got %s, %s, %s", first[0].ID, first[1].ID, first[2].ID)
	}
}

func TestGraph_TopologicalSort_Cycle(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	_, err := g.TopologicalSort()
	if err == nil {
		t.Fatal("expected error for cyclic graph")
	}
	var cycleErr *core.CyclicDependencyError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CyclicDependencyError, got %T", err)
	}
	if len(cycleErr.Cycle) == 0 {
		t.Error("expected cycle path in error")
	}
}

func TestGraph_ExecutionLevels(t *testing.T) {
	g := NewGraph()
	g.AddNode("stg_a", nil)
	g.AddNode("stg_b", nil)
	g.AddNode("int_ab", nil)
	g.AddNode("fct_ab", nil)

	g.AddEdge("stg_a", "int_ab")
	g.AddEdge("stg_b", "int_ab")
	g.AddEdge("int_ab", "fct_ab")

	levels, err := g.ExecutionLevels()
	if err != nil {
		t.Fatalf("execution levels failed: %v", err)
	}

	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	if len(levels[0]) != 2 || levels[0][0] != "stg_a" || levels[0][1] != "stg_b" {
		t.Errorf("unexpected level 0: %v", levels[0])
	}
	if len(levels[1]) != 1 || levels[1][0] != "int_ab" {
		t.Errorf("unexpected level 1: %v", levels[1])
	}
	if len(levels[2]) != 1 || levels[2][0] != "fct_ab" {
		t.Errorf("unexpected level 2: %v", levels[2])
	}
}

func TestGraph_Downstream(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		g.AddNode(id, nil)
	}
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("a", "d")
	// e is unrelated.

	affected := g.Downstream([]string{"a"})
	want := []string{"a", "b", "c", "d"}
	if len(affected) != len(want) {
		t.Fatalf("expected %v, got %v", want, affected)
	}
	for i := range want {
		if affected[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, affected)
		}
	}
}

func TestGraph_Upstream(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id, nil)
	}
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("d", "c")

	upstream := g.Upstream("c")
	want := []string{"a", "b", "d"}
	if len(upstream) != len(want) {
		t.Fatalf("expected %v, got %v", want, upstream)
	}
	for i := range want {
		if upstream[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, upstream)
		}
	}
}

func TestGraph_RootsAndLeaves(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id, nil)
	}
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	if roots := g.Roots(); len(roots) != 1 || roots[0] != "a" {
		t.Errorf("unexpected roots: %v", roots)
	}
	if leaves := g.Leaves(); len(leaves) != 1 || leaves[0] != "c" {
		t.Errorf("unexpected leaves: %v", leaves)
	}
}

func TestGraph_Subgraph(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id, &core.Model{Name: id})
	}
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "d")

	sub := g.Subgraph([]string{"a", "b", "d"})

	if sub.NodeCount() != 3 {
		t.Errorf("expected 3 nodes in subgraph, got %d", sub.NodeCount())
	}
	// a -> b survives, b -> c and c -> d cross the boundary and drop.
	if sub.EdgeCount() != 1 {
		t.Errorf("expected 1 edge in subgraph, got %d", sub.EdgeCount())
	}
	if node, ok := sub.GetNode("b"); !ok || node.Model.Name != "b" {
		t.Error("expected subgraph to carry model data")
	}
}

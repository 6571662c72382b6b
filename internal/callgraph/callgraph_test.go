package callgraph

import (
	"testing"

	"opcount/internal/analysis"
)

func TestBuildInlineGraph(t *testing.T) {
	exp := &analysis.Expansion{
		Root: "_Z5test1v",
		Edges: []analysis.Edge{
			{Caller: "_Z5test1v", Callee: "_Z3barv", Depth: 1},
			{Caller: "_Z3barv", Callee: "_Z3bazv", Depth: 2},
			{Caller: "_Z5test1v", Callee: "_Z3bazv", Depth: 1},
		},
		Kept: []analysis.KeptCall{
			{Caller: "_Z3bazv", Callee: "printf", Reason: "not in dump"},
			{Caller: "_Z3bazv", Reason: "no symbol"},
		},
	}

	g := BuildInlineGraph(exp)
	if len(g.Nodes) != 4 {
		t.Errorf("expected 4 nodes, got %d: %v", len(g.Nodes), g.Nodes)
	}
	if len(g.Edges) != 4 {
		t.Errorf("expected 4 edges, got %d", len(g.Edges))
	}

	if dot := DOT(exp, "inline graph"); dot == "" {
		t.Error("expected non-empty DOT output")
	}
}

func TestBuildInlineGraphNil(t *testing.T) {
	g := BuildInlineGraph(nil)
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("expected empty graph, got %+v", g)
	}
}

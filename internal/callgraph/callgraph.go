// Package callgraph turns an expansion into a lattice call graph.
package callgraph

import (
	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"opcount/internal/analysis"
)

// BuildInlineGraph constructs a lattice.Graph of the calls that were inlined.
// Every function reached becomes a node; calls that were kept in place
// (recursive or leaving the dump) are added as edges to their target when
// the target symbol is known.
func BuildInlineGraph(exp *analysis.Expansion) *lattice.Graph {
	g := &lattice.Graph{}
	if exp == nil {
		return g
	}
	seen := map[string]bool{exp.Root: true}
	g.Nodes = append(g.Nodes, exp.Root)
	for _, e := range exp.Edges {
		if !seen[e.Callee] {
			seen[e.Callee] = true
			g.Nodes = append(g.Nodes, e.Callee)
		}
		g.Edges = append(g.Edges, lattice.Edge{
			Caller: e.Caller,
			Callee: e.Callee,
		})
	}
	for _, k := range exp.Kept {
		if k.Caller == "" || k.Callee == "" {
			continue
		}
		if !seen[k.Callee] {
			seen[k.Callee] = true
			g.Nodes = append(g.Nodes, k.Callee)
		}
		g.Edges = append(g.Edges, lattice.Edge{
			Caller: k.Caller,
			Callee: k.Callee,
		})
	}
	g.Dedup()
	return g
}

// DOT renders the inline graph of exp.
func DOT(exp *analysis.Expansion, title string) string {
	return render.DOT(BuildInlineGraph(exp), title)
}

package rules

import "shamash/internal/graph"

// GraphResults caches one run's graph construction and SCC computation for
// a single granularity/includeExternal combination, computed once by the
// engine orchestrator and shared read-only with every graph.* rule
// (spec.md §5: "the fact index is read-shared after freeze" — this extends
// the same policy to the derived graph, since rebuilding it per rule would
// be wasted work for an otherwise pure function of the fact index).
type GraphResults struct {
	Graph           *graph.Graph
	SCCs            []graph.SCC
	Granularity     graph.Granularity
	IncludeExternal bool
}

// BuildGraphResults wraps an already-built graph of the given granularity
// and computes its strongly-connected components.
func BuildGraphResults(g *graph.Graph, granularity graph.Granularity, includeExternal bool) *GraphResults {
	return &GraphResults{Graph: g, SCCs: graph.TarjanSCC(g), Granularity: granularity, IncludeExternal: includeExternal}
}

// Granularity re-exports graph.Granularity so rule parameter code does not
// need to import internal/graph directly for this one type.
type Granularity = graph.Granularity

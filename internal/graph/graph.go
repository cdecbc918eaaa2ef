// Package graph builds the dependency graph over classes, packages, or
// modules (spec.md §4.7), and computes strongly-connected components,
// representative cycles, hotspots, and the v1 composite scoring model.
// The SCC algorithm is Tarjan's: a recursive index/lowlink DFS with an
// explicit stack, run over class/package/module node identities.
package graph

import (
	"sort"
	"strings"

	"shamash/internal/facts"
)

// Granularity selects which identity a dependency edge's endpoints
// collapse to.
type Granularity string

const (
	GranularityClass   Granularity = "class"
	GranularityPackage Granularity = "package"
	GranularityModule  Granularity = "module"
)

const externalBucketPrefix = "__external__:"

// Graph is a deduped directed graph over node identities.
type Graph struct {
	Nodes     []string // ascending, deduped
	Adjacency map[string][]string // ascending, deduped per source
	nodeSet   map[string]bool
}

// Build derives a Graph from a fact index's dependency edges, collapsing
// endpoints to the requested granularity. External references (to classes
// outside the scanned index) are admitted only if includeExternal is true;
// when admitted, each keeps its own FQN (collapsed to the requested
// granularity like any other node). External references are not grouped
// by archive: Build never creates "__external__:<bucket>" nodes.
func Build(idx *facts.Index, granularity Granularity, includeExternal bool) *Graph {
	g := &Graph{nodeSet: make(map[string]bool), Adjacency: make(map[string][]string)}
	edgeSet := make(map[[2]string]bool)

	for _, c := range idx.Classes {
		g.addNode(nodeID(c.Type.FQN, granularity))
	}

	for _, e := range idx.Edges {
		toScanned := idx.IsScanned(e.To.FQN)
		if !toScanned && !includeExternal {
			continue
		}
		from := nodeID(e.From.FQN, granularity)
		to := nodeID(e.To.FQN, granularity)
		if from == to {
			continue
		}
		key := [2]string{from, to}
		if edgeSet[key] {
			continue
		}
		edgeSet[key] = true
		g.addNode(from)
		g.addNode(to)
		g.Adjacency[from] = append(g.Adjacency[from], to)
	}

	sort.Strings(g.Nodes)
	for from := range g.Adjacency {
		sort.Strings(g.Adjacency[from])
	}
	return g
}

func (g *Graph) addNode(id string) {
	if !g.nodeSet[id] {
		g.nodeSet[id] = true
		g.Nodes = append(g.Nodes, id)
	}
}

// HasNode reports whether id was admitted into the graph.
func (g *Graph) HasNode(id string) bool { return g.nodeSet[id] }

func nodeID(fqn string, granularity Granularity) string {
	switch granularity {
	case GranularityPackage:
		return packageOf(fqn)
	case GranularityModule:
		return moduleOf(fqn)
	default:
		return fqn
	}
}

func packageOf(fqn string) string {
	if strings.HasPrefix(fqn, externalBucketPrefix) {
		return fqn
	}
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return ""
	}
	return fqn[:idx]
}

// moduleOf collapses a package to its first two dot-segments, a
// conservative proxy for "module" absent an explicit module descriptor in
// the bytecode-only input (there is no module-info.class parsing in this
// extractor).
func moduleOf(fqn string) string {
	pkg := packageOf(fqn)
	if pkg == "" {
		return ""
	}
	segs := strings.Split(pkg, ".")
	if len(segs) <= 2 {
		return pkg
	}
	return strings.Join(segs[:2], ".")
}

package rules

import (
	"fmt"

	"shamash/internal/facts"
	"shamash/internal/graph"
	"shamash/internal/paramreader"
	"shamash/internal/policy"
)

// graphFor returns the graph and its SCCs for the requested granularity and
// includeExternal setting, reusing ctx.GraphResults when its precomputed
// combination matches and otherwise building a fresh one. The engine
// precomputes one combination (class granularity, external edges excluded)
// since it is the default and most rules use it; a rule configured for a
// different combination pays for its own recomputation.
func graphFor(ctx EvalContext, granularity graph.Granularity, includeExternal bool) (*graph.Graph, []graph.SCC) {
	if ctx.GraphResults != nil && ctx.GraphResults.Granularity == granularity && ctx.GraphResults.IncludeExternal == includeExternal {
		return ctx.GraphResults.Graph, ctx.GraphResults.SCCs
	}
	g := graph.Build(ctx.Index, granularity, includeExternal)
	return g, graph.TarjanSCC(g)
}

func readGraphParams(r *paramreader.Reader) (graph.Granularity, bool, error) {
	granularity, err := r.OptionalEnum("granularity", []string{"CLASS", "PACKAGE", "MODULE"}, "CLASS")
	if err != nil {
		return "", false, err
	}
	includeExternal, err := r.OptionalBool("includeExternal", false)
	if err != nil {
		return "", false, err
	}
	var g graph.Granularity
	switch granularity {
	case "PACKAGE":
		g = graph.GranularityPackage
	case "MODULE":
		g = graph.GranularityModule
	default:
		g = graph.GranularityClass
	}
	return g, includeExternal, nil
}

// noCyclesRule implements graph.noCycles: any cyclic SCC at the configured
// granularity is a finding, reported against the lexicographically-first
// scanned class participating in it (the rule operates at class/package/
// module granularity, but every finding anchors to a concrete class so
// report locations stay comparable across rule kinds).
type noCyclesRule struct{}

func (noCyclesRule) ID() string { return "graph.noCycles" }

func (noCyclesRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	granularity, includeExternal, err := readGraphParams(r)
	if err != nil {
		return nil, err
	}
	g, sccs := graphFor(ctx, granularity, includeExternal)

	var findings []Finding
	for _, scc := range sccs {
		if !scc.Cyclic(g) {
			continue
		}
		anchor, ok := anchorClass(ctx, scc.Nodes[0])
		if !ok {
			continue
		}
		if !inScope(ctx, def, anchor) {
			continue
		}
		f := newFinding(ctx, def.CanonicalID(), fmt.Sprintf("dependency cycle among %d nodes: %v", len(scc.Nodes), scc.Nodes), severityOf(def), anchor)
		f.Data["cycleSize"] = fmt.Sprint(len(scc.Nodes))
		findings = append(findings, f)
	}
	return findings, nil
}

// maxCyclesRule implements graph.maxCycles: a repo-wide cap on the count of
// cyclic SCCs, reported once against the first offending SCC's anchor class.
type maxCyclesRule struct{}

func (maxCyclesRule) ID() string { return "graph.maxCycles" }

func (maxCyclesRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	granularity, includeExternal, err := readGraphParams(r)
	if err != nil {
		return nil, err
	}
	max, err := r.RequireInt("max")
	if err != nil {
		return nil, err
	}
	g, sccs := graphFor(ctx, granularity, includeExternal)

	count := 0
	var firstAnchor *facts.ClassFact
	for _, scc := range sccs {
		if !scc.Cyclic(g) {
			continue
		}
		count++
		if firstAnchor == nil {
			if anchor, ok := anchorClass(ctx, scc.Nodes[0]); ok {
				firstAnchor = &anchor
			}
		}
	}
	if count <= max || firstAnchor == nil {
		return nil, nil
	}
	f := newFinding(ctx, def.CanonicalID(), fmt.Sprintf("%d dependency cycles found, exceeding the limit of %d", count, max), severityOf(def), *firstAnchor)
	f.Data["count"] = fmt.Sprint(count)
	f.Data["max"] = fmt.Sprint(max)
	return []Finding{f}, nil
}

// maxEdgeCountRule implements graph.maxEdgeCount: a repo-wide cap on the
// total number of directed edges in the dependency graph.
type maxEdgeCountRule struct{}

func (maxEdgeCountRule) ID() string { return "graph.maxEdgeCount" }

func (maxEdgeCountRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	granularity, includeExternal, err := readGraphParams(r)
	if err != nil {
		return nil, err
	}
	max, err := r.RequireInt("max")
	if err != nil {
		return nil, err
	}
	g, _ := graphFor(ctx, granularity, includeExternal)

	count := 0
	for _, targets := range g.Adjacency {
		count += len(targets)
	}
	if count <= max || len(g.Nodes) == 0 {
		return nil, nil
	}
	anchor, ok := anchorClass(ctx, g.Nodes[0])
	if !ok {
		return nil, nil
	}
	f := newFinding(ctx, def.CanonicalID(), fmt.Sprintf("dependency graph has %d edges, exceeding the limit of %d", count, max), severityOf(def), anchor)
	f.Data["count"] = fmt.Sprint(count)
	f.Data["max"] = fmt.Sprint(max)
	return []Finding{f}, nil
}

// maxDependencyDensityRule implements graph.maxDependencyDensity: a cap on
// edges-per-node (a fractional ratio, unlike the other graph gates).
type maxDependencyDensityRule struct{}

func (maxDependencyDensityRule) ID() string { return "graph.maxDependencyDensity" }

func (maxDependencyDensityRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	granularity, includeExternal, err := readGraphParams(r)
	if err != nil {
		return nil, err
	}
	max, err := r.RequireFloat("max")
	if err != nil {
		return nil, err
	}
	g, _ := graphFor(ctx, granularity, includeExternal)
	if len(g.Nodes) == 0 {
		return nil, nil
	}

	edges := 0
	for _, targets := range g.Adjacency {
		edges += len(targets)
	}
	density := float64(edges) / float64(len(g.Nodes))
	if density <= max {
		return nil, nil
	}
	anchor, ok := anchorClass(ctx, g.Nodes[0])
	if !ok {
		return nil, nil
	}
	f := newFinding(ctx, def.CanonicalID(), fmt.Sprintf("dependency density is %.2f edges/node, exceeding the limit of %.2f", density, max), severityOf(def), anchor)
	f.Data["density"] = fmt.Sprintf("%.4f", density)
	f.Data["max"] = fmt.Sprintf("%.4f", max)
	return []Finding{f}, nil
}

// anchorClass resolves a graph node id back to a scanned ClassFact. For
// package/module granularity the node id is not itself a class FQN, so the
// lexicographically-first scanned class under that package/module prefix
// stands in as the anchor.
func anchorClass(ctx EvalContext, nodeID string) (facts.ClassFact, bool) {
	if c, ok := ctx.Index.ClassByFQN(nodeID); ok {
		return c, true
	}
	var best *facts.ClassFact
	for i, c := range ctx.Index.Classes {
		if c.Package == nodeID || (len(c.Package) > len(nodeID) && c.Package[:len(nodeID)+1] == nodeID+".") {
			if best == nil || c.Type.FQN < best.Type.FQN {
				best = &ctx.Index.Classes[i]
			}
		}
	}
	if best == nil {
		return facts.ClassFact{}, false
	}
	return *best, true
}

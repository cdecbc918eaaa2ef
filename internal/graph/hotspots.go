package graph

import (
	"sort"

	"shamash/internal/facts"
)

// Metric names a coupling or size measure a node is ranked by.
type Metric string

const (
	MetricFanIn         Metric = "fanIn"
	MetricFanOut        Metric = "fanOut"
	MetricPackageSpread Metric = "packageSpread"
	MetricMethodCount   Metric = "methodCount"
)

// Reason is one metric-rank contribution to a node's hotspot entry.
type Reason struct {
	Metric Metric
	Value  float64
	Rank   int // 1-based rank within that metric's top-N
}

// HotspotEntry aggregates every top-N reason a node was flagged for, across
// all tracked metrics.
type HotspotEntry struct {
	Kind    Granularity
	ID      string
	Reasons []Reason
}

// Metrics bundles the raw, pre-computed per-node measurements hotspot
// ranking and scoring both consume.
type Metrics struct {
	FanIn         map[string]int
	FanOut        map[string]int
	PackageSpread map[string]int // distinct packages of a node's direct successors, at every granularity
	MethodCount   map[string]int
}

// ComputeMetrics derives fan-in/fan-out/package-spread/method-count for
// every node in g from the graph's own adjacency (fan-in/out) plus the fact
// index (method counts, grouped by the same granularity g was built with).
func ComputeMetrics(g *Graph, idx *facts.Index, granularity Granularity) *Metrics {
	m := &Metrics{
		FanIn:         make(map[string]int),
		FanOut:        make(map[string]int),
		PackageSpread: make(map[string]int),
		MethodCount:   make(map[string]int),
	}
	for _, n := range g.Nodes {
		m.FanOut[n] = len(g.Adjacency[n])
	}
	for _, from := range g.Nodes {
		for _, to := range g.Adjacency[from] {
			m.FanIn[to]++
		}
	}
	for _, n := range g.Nodes {
		seen := make(map[string]bool)
		for _, to := range g.Adjacency[n] {
			seen[packageOf(to)] = true
		}
		m.PackageSpread[n] = len(seen)
	}
	for _, c := range idx.Classes {
		node := nodeID(c.Type.FQN, granularity)
		if !g.HasNode(node) {
			continue
		}
		m.MethodCount[node] += len(idx.MethodsOf(c.Type.FQN))
	}
	return m
}

// TopN ranks nodes by metric value descending (ties broken by ascending
// id), keeping the top n per metric, then aggregates into HotspotEntry
// records ordered by max-metric-value descending, then id ascending
// (spec.md §4.7).
func TopN(kind Granularity, m *Metrics, n int) []HotspotEntry {
	byNode := make(map[string]*HotspotEntry)

	rankMetric := func(metric Metric, values map[string]int) {
		type pair struct {
			id    string
			value int
		}
		pairs := make([]pair, 0, len(values))
		for id, v := range values {
			pairs = append(pairs, pair{id, v})
		}
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i].value != pairs[j].value {
				return pairs[i].value > pairs[j].value
			}
			return pairs[i].id < pairs[j].id
		})
		limit := n
		if limit > len(pairs) {
			limit = len(pairs)
		}
		for i := 0; i < limit; i++ {
			p := pairs[i]
			if p.value == 0 {
				continue
			}
			e, ok := byNode[p.id]
			if !ok {
				e = &HotspotEntry{Kind: kind, ID: p.id}
				byNode[p.id] = e
			}
			e.Reasons = append(e.Reasons, Reason{Metric: metric, Value: float64(p.value), Rank: i + 1})
		}
	}

	rankMetric(MetricFanIn, m.FanIn)
	rankMetric(MetricFanOut, m.FanOut)
	rankMetric(MetricPackageSpread, m.PackageSpread)
	rankMetric(MetricMethodCount, m.MethodCount)

	out := make([]HotspotEntry, 0, len(byNode))
	for _, e := range byNode {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := maxReasonValue(out[i]), maxReasonValue(out[j])
		if mi != mj {
			return mi > mj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func maxReasonValue(e HotspotEntry) float64 {
	max := 0.0
	for _, r := range e.Reasons {
		if r.Value > max {
			max = r.Value
		}
	}
	return max
}

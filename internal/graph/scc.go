package graph

import "sort"

// SCC is one strongly-connected component, node ids in ascending order.
type SCC struct {
	Nodes []string
}

// Cyclic reports whether the component is cyclic: more than one node, or a
// single node with a self-loop (spec.md §4.7).
func (s SCC) Cyclic(g *Graph) bool {
	if len(s.Nodes) > 1 {
		return true
	}
	if len(s.Nodes) == 1 {
		for _, to := range g.Adjacency[s.Nodes[0]] {
			if to == s.Nodes[0] {
				return true
			}
		}
	}
	return false
}

type tarjanState struct {
	index    int
	indexOf  map[string]int
	lowlink  map[string]int
	onStack  map[string]bool
	stack    []string
	sccs     [][]string
	g        *Graph
}

// TarjanSCC computes every strongly-connected component of g. Each
// component's nodes are sorted ascending, and the components are returned
// sorted by their minimum node id, so the result is deterministic.
func TarjanSCC(g *Graph) []SCC {
	st := &tarjanState{
		indexOf: make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
		g:       g,
	}
	for _, n := range g.Nodes {
		if _, visited := st.indexOf[n]; !visited {
			strongConnect(st, n)
		}
	}
	out := make([]SCC, 0, len(st.sccs))
	for _, nodes := range st.sccs {
		sort.Strings(nodes)
		out = append(out, SCC{Nodes: nodes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nodes[0] < out[j].Nodes[0] })
	return out
}

func strongConnect(st *tarjanState, v string) {
	st.indexOf[v] = st.index
	st.lowlink[v] = st.index
	st.index++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for _, w := range st.g.Adjacency[v] {
		if _, visited := st.indexOf[w]; !visited {
			strongConnect(st, w)
			if st.lowlink[w] < st.lowlink[v] {
				st.lowlink[v] = st.lowlink[w]
			}
		} else if st.onStack[w] {
			if st.indexOf[w] < st.lowlink[v] {
				st.lowlink[v] = st.indexOf[w]
			}
		}
	}

	if st.lowlink[v] == st.indexOf[v] {
		var scc []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		st.sccs = append(st.sccs, scc)
	}
}

package graph

import "sort"

// RepresentativeCycle extracts one representative cycle from a cyclic SCC
// via bounded DFS restricted to the SCC's own subgraph, so the search never
// wanders into the rest of the graph. maxLength caps the length of the
// DFS path: a branch is abandoned once the path holds more than maxLength
// nodes, guarding against pathological enumeration in a densely-connected
// component (spec.md §4.7).
func RepresentativeCycle(g *Graph, scc SCC, maxLength int) []string {
	if len(scc.Nodes) == 0 {
		return nil
	}
	inSCC := make(map[string]bool, len(scc.Nodes))
	for _, n := range scc.Nodes {
		inSCC[n] = true
	}

	start := scc.Nodes[0] // ascending-sorted: deterministic starting point
	if len(scc.Nodes) == 1 {
		// Single-node cyclic SCC: the cycle is the self-loop itself.
		for _, to := range g.Adjacency[start] {
			if to == start {
				return []string{start}
			}
		}
		return nil
	}

	visited := make(map[string]bool)
	path := []string{start}
	onPath := map[string]bool{start: true}

	var dfs func(node string) []string
	dfs = func(node string) []string {
		if len(path) > maxLength {
			return nil
		}
		neighbors := append([]string(nil), g.Adjacency[node]...)
		sort.Strings(neighbors)
		for _, next := range neighbors {
			if !inSCC[next] {
				continue
			}
			if next == start && len(path) > 1 {
				return append(append([]string(nil), path...), start)
			}
			if onPath[next] || visited[next] {
				continue
			}
			onPath[next] = true
			path = append(path, next)
			if found := dfs(next); found != nil {
				return found
			}
			path = path[:len(path)-1]
			onPath[next] = false
			visited[next] = true
		}
		return nil
	}
	return dfs(start)
}

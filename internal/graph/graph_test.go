package graph

import (
	"testing"

	"shamash/internal/classfile"
	"shamash/internal/facts"
)

func classFact(fqn string) facts.ClassFact {
	pkg := ""
	if i := lastDot(fqn); i >= 0 {
		pkg = fqn[:i]
	}
	return facts.ClassFact{Type: classfile.TypeRef{FQN: fqn, InternalName: fqn}, Package: pkg}
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func edge(from, to string) facts.DependencyEdge {
	return facts.DependencyEdge{
		From: classfile.TypeRef{FQN: from, InternalName: from},
		To:   classfile.TypeRef{FQN: to, InternalName: to},
		Kind: classfile.KindMethodCall,
	}
}

func buildIndex(classFQNs []string, edges []facts.DependencyEdge) *facts.Index {
	var results []facts.ClassResult
	for _, fqn := range classFQNs {
		results = append(results, facts.ClassResult{Class: classFact(fqn)})
	}
	if len(results) > 0 {
		results[0].Edges = edges
	}
	return facts.Build(results)
}

func TestBuildDedupesDirectedEdges(t *testing.T) {
	idx := buildIndex([]string{"a.A", "a.B"}, []facts.DependencyEdge{
		edge("a.A", "a.B"), edge("a.A", "a.B"),
	})
	g := Build(idx, GranularityClass, true)
	if len(g.Adjacency["a.A"]) != 1 {
		t.Fatalf("expected deduped single edge, got %v", g.Adjacency["a.A"])
	}
}

func TestBuildExcludesExternalByDefault(t *testing.T) {
	idx := buildIndex([]string{"a.A"}, []facts.DependencyEdge{edge("a.A", "external.Lib")})
	g := Build(idx, GranularityClass, false)
	if len(g.Adjacency["a.A"]) != 0 {
		t.Fatalf("expected external edge excluded, got %v", g.Adjacency["a.A"])
	}
	g2 := Build(idx, GranularityClass, true)
	if len(g2.Adjacency["a.A"]) != 1 {
		t.Fatalf("expected external edge included, got %v", g2.Adjacency["a.A"])
	}
}

func TestTarjanFindsSimpleCycle(t *testing.T) {
	idx := buildIndex([]string{"a.A", "a.B", "a.C"}, []facts.DependencyEdge{
		edge("a.A", "a.B"), edge("a.B", "a.C"), edge("a.C", "a.A"),
	})
	g := Build(idx, GranularityClass, true)
	sccs := TarjanSCC(g)

	var cyclic *SCC
	for i := range sccs {
		if sccs[i].Cyclic(g) {
			cyclic = &sccs[i]
		}
	}
	if cyclic == nil {
		t.Fatal("expected a cyclic SCC")
	}
	if len(cyclic.Nodes) != 3 {
		t.Fatalf("expected 3-node cycle, got %v", cyclic.Nodes)
	}
}

func TestTarjanAcyclicGraphHasSingletonSCCs(t *testing.T) {
	idx := buildIndex([]string{"a.A", "a.B"}, []facts.DependencyEdge{edge("a.A", "a.B")})
	g := Build(idx, GranularityClass, true)
	sccs := TarjanSCC(g)
	for _, s := range sccs {
		if s.Cyclic(g) {
			t.Errorf("did not expect any cyclic SCC, got %v", s.Nodes)
		}
	}
}

func TestRepresentativeCycleStaysWithinSCC(t *testing.T) {
	idx := buildIndex([]string{"a.A", "a.B", "a.C"}, []facts.DependencyEdge{
		edge("a.A", "a.B"), edge("a.B", "a.C"), edge("a.C", "a.A"),
	})
	g := Build(idx, GranularityClass, true)
	sccs := TarjanSCC(g)
	var cyclic SCC
	for _, s := range sccs {
		if s.Cyclic(g) {
			cyclic = s
		}
	}
	cycle := RepresentativeCycle(g, cyclic, 25)
	if len(cycle) == 0 {
		t.Fatal("expected a non-empty representative cycle")
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("expected cycle to return to its start, got %v", cycle)
	}
}

func TestComputeScoresNormalizesAndBands(t *testing.T) {
	idx := buildIndex([]string{"a.A", "a.B", "a.C"}, []facts.DependencyEdge{
		edge("a.A", "a.B"), edge("a.A", "a.C"),
	})
	g := Build(idx, GranularityClass, true)
	metrics := ComputeMetrics(g, idx, GranularityClass)
	scores := ComputeScores(metrics, DefaultWeights, 0.5, 0.8)
	if len(scores) == 0 {
		t.Fatal("expected scores")
	}
	for _, s := range scores {
		if s.Value < 0 || s.Value > 1 {
			t.Errorf("score out of range: %+v", s)
		}
		// a.A: fanOut 2/2 and packageSpread 1/1 give 0.25+0.25 = 0.5 >= warning;
		// a.B and a.C: fanIn 1/1 gives 0.25 < warning.
		want := BandOK
		if s.ID == "a.A" {
			want = BandWarn
		}
		if s.Band != want {
			t.Errorf("expected band %s for %s, got %+v", want, s.ID, s)
		}
	}
}

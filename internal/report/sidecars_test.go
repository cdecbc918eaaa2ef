package report

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"shamash/internal/classfile"
	"shamash/internal/facts"
	"shamash/internal/graph"
	"shamash/internal/policy"
	"shamash/internal/roles"
)

func internalNameFromFQN(fqn string) string {
	return strings.ReplaceAll(fqn, ".", "/")
}

func testClassFact(pkg, simple string) facts.ClassFact {
	fqn := pkg + "." + simple
	return facts.ClassFact{
		Type:       classfile.TypeRef{FQN: fqn, InternalName: internalNameFromFQN(fqn), Package: pkg, SimpleName: simple},
		Package:    pkg,
		SimpleName: simple,
		Location:   facts.SourceLocation{OriginKind: facts.OriginDirectoryClass, OriginPath: internalNameFromFQN(fqn) + ".class"},
	}
}

func testIndex() *facts.Index {
	a := testClassFact("com.example", "Foo")
	b := testClassFact("com.example", "Bar")
	edge := facts.DependencyEdge{From: a.Type, To: b.Type, Kind: classfile.KindMethodCall, Detail: "doIt"}
	return facts.Build([]facts.ClassResult{
		{Class: a, Edges: []facts.DependencyEdge{edge}},
		{Class: b},
	})
}

func TestRenderFactsJSONLOneRecordPerClass(t *testing.T) {
	idx := testIndex()
	out, err := RenderFactsJSONL(idx)
	if err != nil {
		t.Fatalf("RenderFactsJSONL: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one line per class, got %d", len(lines))
	}
	var rec factRecord
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshaling fact record: %v", err)
	}
	if rec.FQN == "" {
		t.Fatal("expected fqn to be populated")
	}
}

func TestRenderFactsGzipDecompressesToSameContent(t *testing.T) {
	idx := testIndex()
	plain, err := RenderFactsJSONL(idx)
	if err != nil {
		t.Fatalf("RenderFactsJSONL: %v", err)
	}
	gz, err := RenderFactsGzip(idx)
	if err != nil {
		t.Fatalf("RenderFactsGzip: %v", err)
	}
	if len(gz) == 0 {
		t.Fatal("expected non-empty gzip output")
	}
	zr, err := gzip.NewReader(bytes.NewReader(gz))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	decompressed, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("reading gzip stream: %v", err)
	}
	if !bytes.Equal(decompressed, plain) {
		t.Fatal("expected decompressed gzip output to equal the plain JSONL")
	}
}

func TestRenderRolesJSONSortedByClassFQN(t *testing.T) {
	idx := testIndex()
	roleIdx, err := roles.Compile([]policy.RoleDef{
		{ID: "example", Priority: 1, Matcher: map[string]any{"packageRegex": "^com\\.example$"}},
	})
	if err != nil {
		t.Fatalf("Compile roles: %v", err)
	}
	out, err := RenderRolesJSON(idx, roleIdx)
	if err != nil {
		t.Fatalf("RenderRolesJSON: %v", err)
	}
	var assignments []roleAssignment
	if err := json.Unmarshal(out, &assignments); err != nil {
		t.Fatalf("unmarshaling roles: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("expected 2 role assignments, got %d", len(assignments))
	}
	if assignments[0].ClassFQN > assignments[1].ClassFQN {
		t.Fatal("expected role assignments sorted ascending by class FQN")
	}
}

func TestRenderRulePlanJSONPreservesDeclarationOrder(t *testing.T) {
	defs := []policy.RuleDef{
		{Type: "naming", Name: "bannedSuffixes", Severity: "warning"},
		{Type: "api", Name: "maxPublicTypes", Severity: "error"},
	}
	out, err := RenderRulePlanJSON(defs)
	if err != nil {
		t.Fatalf("RenderRulePlanJSON: %v", err)
	}
	var entries []rulePlanEntry
	if err := json.Unmarshal(out, &entries); err != nil {
		t.Fatalf("unmarshaling rule plan: %v", err)
	}
	if len(entries) != 2 || entries[0].CanonicalID != "naming.bannedSuffixes" {
		t.Fatalf("expected declaration order preserved, got %+v", entries)
	}
}

func TestRenderAnalysisGraphsJSONIncludesNodesEdgesAndSCCs(t *testing.T) {
	idx := testIndex()
	g := graph.Build(idx, graph.GranularityClass, false)
	sccs := graph.TarjanSCC(g)
	out, err := RenderAnalysisGraphsJSON(g, sccs, graph.GranularityClass)
	if err != nil {
		t.Fatalf("RenderAnalysisGraphsJSON: %v", err)
	}
	var doc graphSidecar
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshaling graph sidecar: %v", err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %+v", doc)
	}
}

func TestRenderAnalysisHotspotsAndScoresJSON(t *testing.T) {
	idx := testIndex()
	g := graph.Build(idx, graph.GranularityClass, false)
	m := graph.ComputeMetrics(g, idx, graph.GranularityClass)
	hotspots := graph.TopN(graph.GranularityClass, m, 10)
	if _, err := RenderAnalysisHotspotsJSON(hotspots); err != nil {
		t.Fatalf("RenderAnalysisHotspotsJSON: %v", err)
	}
	scores := graph.ComputeScores(m, nil, 0.5, 0.8)
	out, err := RenderAnalysisScoresJSON(scores)
	if err != nil {
		t.Fatalf("RenderAnalysisScoresJSON: %v", err)
	}
	var decoded []graph.Score
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshaling scores: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected a score per node, got %d", len(decoded))
	}
}

package report

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"

	"shamash/internal/classfile"
	"shamash/internal/facts"
	"shamash/internal/graph"
	"shamash/internal/policy"
	"shamash/internal/roles"
)

// factRecord is one class fact flattened for the facts sidecar.
type factRecord struct {
	FQN           string   `json:"fqn"`
	Package       string   `json:"package"`
	Super         string   `json:"super,omitempty"`
	Interfaces    []string `json:"interfaces,omitempty"`
	Annotations   []string `json:"annotations,omitempty"`
	HasMainMethod bool     `json:"hasMainMethod,omitempty"`
	OriginPath    string   `json:"originPath"`
	MethodCount   int      `json:"methodCount"`
	FieldCount    int      `json:"fieldCount"`
}

// RenderFactsJSONL renders one JSON object per line, the facts sidecar's
// uncompressed form (spec.md §6: `facts.json(l.gz)`).
func RenderFactsJSONL(idx *facts.Index) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, c := range idx.Classes {
		rec := factRecord{
			FQN:           c.Type.FQN,
			Package:       c.Package,
			Interfaces:    typeNames(c.Interfaces),
			Annotations:   c.Annotations,
			HasMainMethod: c.HasMainMethod,
			OriginPath:    c.Location.OriginPath,
			MethodCount:   len(idx.MethodsOf(c.Type.FQN)),
			FieldCount:    len(idx.FieldsOf(c.Type.FQN)),
		}
		if c.Super != nil {
			rec.Super = c.Super.FQN
		}
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("encoding fact record: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func typeNames(refs []classfile.TypeRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.FQN
	}
	return out
}

// RenderFactsGzip gzip-compresses the JSON-lines facts sidecar.
func RenderFactsGzip(idx *facts.Index) ([]byte, error) {
	raw, err := RenderFactsJSONL(idx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("gzip-compressing facts: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing facts gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

type roleAssignment struct {
	ClassFQN string `json:"classFqn"`
	RoleID   string `json:"roleId"`
}

// RenderRolesJSON emits the role of every class that resolved to one,
// sorted by class FQN; classes that match no role are omitted.
func RenderRolesJSON(idx *facts.Index, roleIdx *roles.Index) ([]byte, error) {
	assignments := roleIdx.ResolveAll(idx)
	out := make([]roleAssignment, 0, len(assignments))
	for fqn, role := range assignments {
		out = append(out, roleAssignment{ClassFQN: fqn, RoleID: role})
	}
	sortRoleAssignments(out)
	return json.MarshalIndent(out, "", "  ")
}

func sortRoleAssignments(assignments []roleAssignment) {
	for i := 1; i < len(assignments); i++ {
		for j := i; j > 0 && assignments[j].ClassFQN < assignments[j-1].ClassFQN; j-- {
			assignments[j], assignments[j-1] = assignments[j-1], assignments[j]
		}
	}
}

type rulePlanEntry struct {
	CanonicalID string         `json:"canonicalId"`
	Severity    string         `json:"severity"`
	Roles       []string       `json:"roles,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// RenderRulePlanJSON emits the configured rule instances in declaration
// order, the shape an auditor uses to see exactly what ran.
func RenderRulePlanJSON(defs []policy.RuleDef) ([]byte, error) {
	out := make([]rulePlanEntry, 0, len(defs))
	for _, def := range defs {
		out = append(out, rulePlanEntry{
			CanonicalID: def.CanonicalID(),
			Severity:    def.Severity,
			Roles:       def.Roles,
			Params:      def.Params,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

type graphSidecar struct {
	Granularity string     `json:"granularity"`
	Nodes       []string   `json:"nodes"`
	Edges       []edgePair `json:"edges"`
	SCCs        [][]string `json:"sccs"`
}

type edgePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RenderAnalysisGraphsJSON emits the built graph's nodes, edges, and SCCs.
func RenderAnalysisGraphsJSON(g *graph.Graph, sccs []graph.SCC, granularity graph.Granularity) ([]byte, error) {
	var edges []edgePair
	for _, from := range g.Nodes {
		for _, to := range g.Adjacency[from] {
			edges = append(edges, edgePair{From: from, To: to})
		}
	}
	var sccNodes [][]string
	for _, scc := range sccs {
		sccNodes = append(sccNodes, scc.Nodes)
	}
	doc := graphSidecar{
		Granularity: string(granularity),
		Nodes:       g.Nodes,
		Edges:       edges,
		SCCs:        sccNodes,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// RenderAnalysisHotspotsJSON emits the hotspot ranking.
func RenderAnalysisHotspotsJSON(entries []graph.HotspotEntry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

// RenderAnalysisScoresJSON emits the composite score for every node.
func RenderAnalysisScoresJSON(scores []graph.Score) ([]byte, error) {
	return json.MarshalIndent(scores, "", "  ")
}

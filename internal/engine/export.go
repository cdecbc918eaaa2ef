package engine

import (
	"fmt"

	"shamash/internal/facts"
	"shamash/internal/graph"
	"shamash/internal/policy"
	"shamash/internal/report"
	"shamash/internal/roles"
	"shamash/internal/rules"
)

const toolVersion = "1.0.0"

// buildExport renders every configured format and requested sidecar into
// memory; the caller is responsible for writing bytes to the output
// directory (spec.md §6's fixed output layout).
func buildExport(built report.Report, doc *policy.Document, index *facts.Index, roleIdx *roles.Index, gr *rules.GraphResults) (*Export, error) {
	exp := &Export{Reports: map[string][]byte{}, Sidecars: map[string][]byte{}}

	for _, format := range doc.Export.Formats {
		bytes, err := renderFormat(format, built)
		if err != nil {
			return nil, fmt.Errorf("rendering %s report: %w", format, err)
		}
		exp.Reports[format] = bytes
	}

	sc := doc.Export.Sidecars
	if sc.Facts {
		name := "facts.json"
		bytes, err := report.RenderFactsJSONL(index)
		if sc.FactsGzip {
			name = "facts.jsonl.gz"
			bytes, err = report.RenderFactsGzip(index)
		}
		if err != nil {
			return nil, fmt.Errorf("rendering facts sidecar: %w", err)
		}
		exp.Sidecars[name] = bytes
	}
	if sc.Roles {
		bytes, err := report.RenderRolesJSON(index, roleIdx)
		if err != nil {
			return nil, fmt.Errorf("rendering roles sidecar: %w", err)
		}
		exp.Sidecars["roles.json"] = bytes
	}
	if sc.RulePlan {
		bytes, err := report.RenderRulePlanJSON(doc.Rules)
		if err != nil {
			return nil, fmt.Errorf("rendering rule-plan sidecar: %w", err)
		}
		exp.Sidecars["rule-plan.json"] = bytes
	}
	if gr != nil && (sc.AnalysisGraphs || sc.AnalysisHotspots || sc.AnalysisScores) {
		if sc.AnalysisGraphs {
			bytes, err := report.RenderAnalysisGraphsJSON(gr.Graph, gr.SCCs, gr.Granularity)
			if err != nil {
				return nil, fmt.Errorf("rendering analysis-graphs sidecar: %w", err)
			}
			exp.Sidecars["analysis-graphs.json"] = bytes
		}
		m := graph.ComputeMetrics(gr.Graph, index, gr.Granularity)
		if sc.AnalysisHotspots {
			topN := doc.Analysis.HotspotTopN
			if topN <= 0 {
				topN = 10
			}
			hotspots := graph.TopN(gr.Granularity, m, topN)
			bytes, err := report.RenderAnalysisHotspotsJSON(hotspots)
			if err != nil {
				return nil, fmt.Errorf("rendering analysis-hotspots sidecar: %w", err)
			}
			exp.Sidecars["analysis-hotspots.json"] = bytes
		}
		if sc.AnalysisScores {
			scoring := doc.Analysis.Scoring
			scores := graph.ComputeScores(m, scoring.Weights, scoring.Warning, scoring.Error)
			bytes, err := report.RenderAnalysisScoresJSON(scores)
			if err != nil {
				return nil, fmt.Errorf("rendering analysis-scores sidecar: %w", err)
			}
			exp.Sidecars["analysis-scores.json"] = bytes
		}
	}

	return exp, nil
}

func renderFormat(format string, built report.Report) ([]byte, error) {
	switch format {
	case "json":
		return report.RenderJSON(built)
	case "sarif":
		return report.RenderSARIF(built, toolVersion)
	case "xml":
		return report.RenderXML(built)
	case "html":
		return report.RenderHTML(built)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

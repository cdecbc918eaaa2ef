package report

import (
	"encoding/json"
	"sort"
	"time"
)

// jsonDocument is the canonical field order for the json exporter.
type jsonDocument struct {
	Schema      string        `json:"schema"`
	GeneratedAt string        `json:"generatedAt"`
	ProjectRoot string        `json:"projectRoot"`
	RunID       string        `json:"runId,omitempty"`
	Summary     jsonSummary   `json:"summary"`
	Findings    []jsonFinding `json:"findings"`
}

type jsonSummary struct {
	Total    int            `json:"total"`
	BySeverity map[string]int `json:"bySeverity"`
}

type jsonFinding struct {
	RuleID      string            `json:"ruleId"`
	Message     string            `json:"message"`
	Severity    string            `json:"severity"`
	FilePath    string            `json:"filePath"`
	ClassFQN    string            `json:"classFqn,omitempty"`
	Member      string            `json:"member,omitempty"`
	Role        string            `json:"role,omitempty"`
	StartOffset *int              `json:"startOffset,omitempty"`
	EndOffset   *int              `json:"endOffset,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	Fingerprint string            `json:"fingerprint"`
}

// RenderJSON emits the canonical, two-space-indented JSON report.
func RenderJSON(r Report) ([]byte, error) {
	bySeverity := map[string]int{}
	findings := make([]jsonFinding, 0, len(r.Records))
	for _, rec := range r.Records {
		bySeverity[string(rec.Severity)]++
		findings = append(findings, jsonFinding{
			RuleID:      rec.RuleID,
			Message:     rec.Message,
			Severity:    string(rec.Severity),
			FilePath:    rec.FilePath,
			ClassFQN:    rec.ClassFQN,
			Member:      rec.Member,
			Role:        rec.Role,
			StartOffset: rec.StartOffset,
			EndOffset:   rec.EndOffset,
			Data:        rec.Data,
			Fingerprint: rec.Fingerprint,
		})
	}
	doc := jsonDocument{
		Schema:      "shamash-report/v1",
		GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
		ProjectRoot: r.ProjectRoot,
		RunID:       r.RunID,
		Summary:     jsonSummary{Total: len(r.Records), BySeverity: bySeverity},
		Findings:    findings,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// severityKeysSorted is used by exporters that need a deterministic
// iteration order over the summary's severity counts.
func severityKeysSorted(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

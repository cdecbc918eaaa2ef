// Package report builds the normalized, sorted export record set from
// findings and serializes it to the json/sarif/xml/html formats (spec.md
// §4.10). Build receives findings that the engine has already passed
// through exception then baseline suppression; it does no suppression of
// its own.
package report

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shamash/internal/baseline"
	"shamash/internal/policy"
	"shamash/internal/rules"
)

// Record is one exported finding: the project-relative path, computed
// fingerprint, and null-coalesced optional fields, ready for any exporter.
type Record struct {
	RuleID      string
	Message     string
	Severity    rules.Severity
	FilePath    string
	ClassFQN    string
	Member      string
	Role        string
	StartOffset *int
	EndOffset   *int
	Data        map[string]string
	Fingerprint string
}

// Report is the built, sorted, export-ready record set plus the metadata
// every exporter needs in its header (generation timestamp, project root,
// run id).
type Report struct {
	GeneratedAt time.Time
	ProjectRoot string
	RunID       string
	Records     []Record
}

// Build converts findings, already filtered by the engine's exception then
// baseline pass, to records: it makes paths project-relative, computes
// fingerprints, and sorts deterministically.
func Build(findings []rules.Finding, projectRoot string, generatedAt time.Time) Report {
	records := make([]Record, 0, len(findings))
	for _, f := range findings {
		records = append(records, Record{
			RuleID:      f.RuleID,
			Message:     f.Message,
			Severity:    f.Severity,
			FilePath:    projectRelative(projectRoot, f.FilePath),
			ClassFQN:    f.ClassFQN,
			Member:      f.Member,
			Role:        f.Role,
			StartOffset: f.StartOffset,
			EndOffset:   f.EndOffset,
			Data:        f.Data,
			Fingerprint: baseline.Fingerprint(f),
		})
	}
	sortRecords(records)
	return Report{GeneratedAt: generatedAt, ProjectRoot: projectRoot, Records: records}
}

func projectRelative(root, path string) string {
	path = filepath.ToSlash(path)
	root = filepath.ToSlash(root)
	if root == "" {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// sortRecords orders by file path, rule id, severity rank, class, member,
// fingerprint, message — the total order spec.md §4.10 documents so export
// is deterministic given identical inputs.
func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.ClassFQN != b.ClassFQN {
			return a.ClassFQN < b.ClassFQN
		}
		if a.Member != b.Member {
			return a.Member < b.Member
		}
		if a.Fingerprint != b.Fingerprint {
			return a.Fingerprint < b.Fingerprint
		}
		return a.Message < b.Message
	})
}

// GateSeverity reports the minimum severity rank that should fail the gate,
// per export.failOn (error|warning|info|none).
func GateSeverity(cfg policy.ExportConfig) (rank int, enabled bool) {
	switch strings.ToLower(cfg.FailOn) {
	case "error":
		return rules.SeverityError.Rank(), true
	case "warning":
		return rules.SeverityWarning.Rank(), true
	case "info":
		return rules.SeverityInfo.Rank(), true
	default:
		return 0, false
	}
}

// ExceedsGate reports whether any record meets or exceeds the configured
// gate severity (spec.md §6's exit-code contract).
func (r Report) ExceedsGate(cfg policy.ExportConfig) bool {
	rank, enabled := GateSeverity(cfg)
	if !enabled {
		return false
	}
	for _, rec := range r.Records {
		if rec.Severity.Rank() <= rank {
			return true
		}
	}
	return false
}

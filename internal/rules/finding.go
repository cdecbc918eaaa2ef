// Package rules implements the pluggable rule registry and the built-in
// rule set (spec.md §4.6), evaluated against a frozen fact index plus the
// role assignments from internal/roles. The registry pattern mirrors the
// teacher's internal/tools.Registry: a thread-safe map with Register/Get,
// backing a process-wide default instance.
package rules

import "shamash/internal/facts"

// Severity ranks a finding; lower rank sorts first at export (spec.md
// §4.10: "severity rank error<warning<info<...").
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// Rank exposes the severity's sort rank (ascending = more severe first).
func (s Severity) Rank() int { return s.rank() }

// Finding is one rule violation (spec.md §3). Data is an ordered map of
// string→string used only by the fingerprint and report exporters; it is
// never consulted by rule-scope or suppression logic. Role is populated
// from the role index so exception selectors can match on it regardless of
// whether the originating rule itself consults roles.
type Finding struct {
	RuleID      string
	Message     string
	Severity    Severity
	FilePath    string // normalized, origin-relative; made project-relative by the report builder
	ClassFQN    string
	Member      string
	Role        string
	StartOffset *int
	EndOffset   *int
	Data        map[string]string
}

// newFinding fills the common fields every rule needs, keyed off a class
// fact's own location and identity.
func newFinding(ctx EvalContext, ruleID, message string, severity Severity, c facts.ClassFact) Finding {
	roleID, _ := ctx.Roles.Resolve(c)
	return Finding{
		RuleID:   ruleID,
		Message:  message,
		Severity: severity,
		FilePath: c.Location.OriginPath,
		ClassFQN: c.Type.FQN,
		Role:     roleID,
		Data:     map[string]string{},
	}
}

// Package exceptions implements per-finding suppression via policy-declared
// exception entries (spec.md §4.8). An exception matches a finding when
// every selector it declares agrees with that finding, and the finding's
// canonical rule id is in the exception's suppressed set (an empty set
// means "every rule matched by the selectors").
package exceptions

import (
	"regexp"
	"strings"
	"time"

	"shamash/internal/pathutil"
	"shamash/internal/policy"
	"shamash/internal/rules"
)

// CompiledException is one exception entry with its regex selectors
// precompiled, so Apply never recompiles a pattern per finding.
type CompiledException struct {
	def             policy.ExceptionDef
	classNameRegex  *regexp.Regexp
	packageRegex    *regexp.Regexp
	originPathRegex *regexp.Regexp
	expired         bool
}

// Compile precompiles every exception's regex selectors. A malformed regex
// is a configuration error, surfaced immediately rather than silently
// never matching.
func Compile(defs []policy.ExceptionDef, now time.Time) ([]CompiledException, error) {
	out := make([]CompiledException, 0, len(defs))
	for _, def := range defs {
		ce := CompiledException{def: def}
		var err error
		if def.Match.ClassNameRegex != "" {
			if ce.classNameRegex, err = regexp.Compile(def.Match.ClassNameRegex); err != nil {
				return nil, err
			}
		}
		if def.Match.PackageRegex != "" {
			if ce.packageRegex, err = regexp.Compile(def.Match.PackageRegex); err != nil {
				return nil, err
			}
		}
		if def.Match.OriginPathRegex != "" {
			if ce.originPathRegex, err = regexp.Compile(def.Match.OriginPathRegex); err != nil {
				return nil, err
			}
		}
		ce.expired = isExpired(def.ExpiresOn, now)
		out = append(out, ce)
	}
	return out, nil
}

// isExpired reports whether expiresOn (optional; a YYYY-MM-DD date or an
// RFC3339 timestamp) is in the
// past relative to now. An unparsable or empty value is never expired.
func isExpired(expiresOn string, now time.Time) bool {
	if expiresOn == "" {
		return false
	}
	t, err := time.Parse("2006-01-02", expiresOn)
	if err != nil {
		t, err = time.Parse(time.RFC3339, expiresOn)
		if err != nil {
			return false
		}
	}
	return now.After(t)
}

// ExpiredWarning is emitted during validation for each expired exception
// (spec.md §4.8: expired exceptions still apply at runtime, but warn at
// validation time).
type ExpiredWarning struct {
	ExpiresOn string
	RuleIDs   []string
}

// ValidationWarnings returns one ExpiredWarning per expired exception, in
// declaration order.
func ValidationWarnings(compiled []CompiledException) []ExpiredWarning {
	var warnings []ExpiredWarning
	for _, ce := range compiled {
		if ce.expired {
			warnings = append(warnings, ExpiredWarning{ExpiresOn: ce.def.ExpiresOn, RuleIDs: ce.def.Suppress})
		}
	}
	return warnings
}

// Apply removes every finding suppressed by at least one compiled
// exception (regardless of whether that exception has expired — expiry
// only affects the validation-time warning, never runtime behavior, per
// spec.md §4.8's documented resolution of the ambiguity).
func Apply(findings []rules.Finding, compiled []CompiledException) []rules.Finding {
	if len(compiled) == 0 {
		return findings
	}
	out := make([]rules.Finding, 0, len(findings))
	for _, f := range findings {
		if !suppressedByAny(f, compiled) {
			out = append(out, f)
		}
	}
	return out
}

func suppressedByAny(f rules.Finding, compiled []CompiledException) bool {
	for _, ce := range compiled {
		if ce.matches(f) {
			return true
		}
	}
	return false
}

func (ce CompiledException) matches(f rules.Finding) bool {
	ruleType, ruleName := splitCanonicalID(f.RuleID)

	if ce.def.Match.RuleID != "" && ce.def.Match.RuleID != f.RuleID {
		return false
	}
	if ce.def.Match.RuleType != "" && ce.def.Match.RuleType != ruleType {
		return false
	}
	if ce.def.Match.RuleName != "" && ce.def.Match.RuleName != ruleName {
		return false
	}
	if len(ce.def.Match.Roles) > 0 && !contains(ce.def.Match.Roles, f.Role) {
		return false
	}
	if ce.def.Match.ClassInternalName != "" && ce.def.Match.ClassInternalName != strings.ReplaceAll(f.ClassFQN, ".", "/") {
		return false
	}
	if ce.classNameRegex != nil && !ce.classNameRegex.MatchString(f.ClassFQN) {
		return false
	}
	if ce.packageRegex != nil && !ce.packageRegex.MatchString(packageOf(f.ClassFQN)) {
		return false
	}
	if ce.originPathRegex != nil && !ce.originPathRegex.MatchString(f.FilePath) {
		return false
	}
	if ce.def.Match.FileGlob != "" && !pathutil.MatchAny([]string{ce.def.Match.FileGlob}, f.FilePath) {
		return false
	}
	if len(ce.def.Suppress) > 0 && !contains(ce.def.Suppress, f.RuleID) {
		return false
	}
	return true
}

func splitCanonicalID(id string) (typ, name string) {
	for i := 0; i < len(id); i++ {
		if id[i] == '.' {
			return id[:i], id[i+1:]
		}
	}
	return id, ""
}

func packageOf(fqn string) string {
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '.' {
			return fqn[:i]
		}
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

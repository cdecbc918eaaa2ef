// Package semval is the semantic validator layered on top of the
// structural schema check (spec.md §4.3): it resolves cross-references
// the schema cannot see — role ids, rule ids, exception selectors — and
// delegates per-rule parameter semantics to internal/rulespec.
package semval

import (
	"fmt"
	"regexp"
	"time"

	"shamash/internal/paramreader"
	"shamash/internal/policy"
	"shamash/internal/rulespec"
)

// Violation is a semantic validation failure or warning, with the
// canonical dotted path of the offending policy-document field.
type Violation struct {
	Path     string
	Message  string
	Severity rulespec.Severity
}

func errV(path, format string, args ...any) Violation {
	return Violation{Path: path, Message: fmt.Sprintf(format, args...), Severity: rulespec.SeverityError}
}

func warnV(path, format string, args ...any) Violation {
	return Violation{Path: path, Message: fmt.Sprintf(format, args...), Severity: rulespec.SeverityWarning}
}

// Validate checks doc against the given rule-spec registry. It never
// mutates doc.
func Validate(doc *policy.Document, specs *rulespec.Registry) []Violation {
	var v []Violation

	roleIDs := make(map[string]bool, len(doc.Roles))
	seen := make(map[string]bool, len(doc.Roles))
	for i, role := range doc.Roles {
		path := fmt.Sprintf("roles[%d]", i)
		if role.ID == "" {
			v = append(v, errV(path+".id", "role id must not be empty"))
			continue
		}
		if seen[role.ID] {
			v = append(v, errV(path+".id", "duplicate role id %q", role.ID))
		}
		seen[role.ID] = true
		roleIDs[role.ID] = true
	}

	ruleIDs := make(map[string]bool, len(doc.Rules))
	for _, rd := range doc.Rules {
		ruleIDs[rd.CanonicalID()] = true
	}

	ctx := rulespec.Context{KnownRoleIDs: roleIDs, KnownRuleIDs: ruleIDs}
	unknownPolicy := doc.Project.ValidationPolicy.UnknownRule
	if unknownPolicy == "" {
		unknownPolicy = policy.UnknownRuleError
	}

	for i, rd := range doc.Rules {
		path := fmt.Sprintf("rules[%d]", i)
		id := rd.CanonicalID()

		spec := specs.Get(id)
		if spec == nil {
			switch unknownPolicy {
			case policy.UnknownRuleIgnore:
				// no-op, configured deliberately
			case policy.UnknownRuleWarn:
				v = append(v, warnV(path, "unknown rule id %q", id))
			default:
				v = append(v, errV(path, "unknown rule id %q", id))
			}
			continue
		}

		for _, role := range rd.Roles {
			if !roleIDs[role] {
				v = append(v, errV(path+".roles", "unknown role id %q", role))
			}
		}
		v = append(v, validateScopeRoles(path+".scope", rd.Scope.IncludeRoles, "includeRoles", roleIDs)...)
		v = append(v, validateScopeRoles(path+".scope", rd.Scope.ExcludeRoles, "excludeRoles", roleIDs)...)
		v = append(v, validateRegexList(path+".scope.includePackages", rd.Scope.IncludePackages)...)
		v = append(v, validateRegexList(path+".scope.excludePackages", rd.Scope.ExcludePackages)...)

		reader := paramreader.New(path+".params", rd.Params)
		for _, pv := range spec.Validate(reader, ctx) {
			v = append(v, Violation{Path: pv.Path, Message: pv.Message, Severity: pv.Severity})
		}
	}

	for i, ex := range doc.Exceptions {
		path := fmt.Sprintf("exceptions[%d]", i)
		v = append(v, validateException(path, ex, ruleIDs)...)
	}

	return v
}

func validateScopeRoles(path string, roles []string, field string, known map[string]bool) []Violation {
	var v []Violation
	for _, r := range roles {
		if !known[r] {
			v = append(v, errV(path+"."+field, "unknown role id %q", r))
		}
	}
	return v
}

func validateRegexList(path string, patterns []string) []Violation {
	var v []Violation
	for i, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			v = append(v, errV(fmt.Sprintf("%s[%d]", path, i), "invalid regex %q: %v", p, err))
		}
	}
	return v
}

func validateException(path string, ex policy.ExceptionDef, knownRuleIDs map[string]bool) []Violation {
	var v []Violation
	m := ex.Match
	if m.RuleID == "" && m.RuleType == "" && m.RuleName == "" && len(m.Roles) == 0 &&
		m.ClassInternalName == "" && m.ClassNameRegex == "" && m.PackageRegex == "" &&
		m.OriginPathRegex == "" && m.FileGlob == "" {
		v = append(v, errV(path+".match", "must declare at least one selector"))
	}
	for _, regexField := range []struct {
		name, pattern string
	}{
		{"classNameRegex", m.ClassNameRegex},
		{"packageRegex", m.PackageRegex},
		{"originPathRegex", m.OriginPathRegex},
	} {
		if regexField.pattern == "" {
			continue
		}
		if _, err := regexp.Compile(regexField.pattern); err != nil {
			v = append(v, errV(path+".match."+regexField.name, "invalid regex %q: %v", regexField.pattern, err))
		}
	}
	for _, id := range ex.Suppress {
		if !knownRuleIDs[id] {
			v = append(v, warnV(path+".suppress", "suppression references unconfigured rule id %q", id))
		}
	}
	if ex.ExpiresOn != "" {
		if t, err := time.Parse("2006-01-02", ex.ExpiresOn); err != nil {
			v = append(v, errV(path+".expiresOn", "invalid date %q, expected YYYY-MM-DD", ex.ExpiresOn))
		} else if t.Before(time.Now()) {
			v = append(v, warnV(path+".expiresOn", "exception expired on %s; it still applies at runtime", ex.ExpiresOn))
		}
	}
	return v
}

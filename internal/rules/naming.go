package rules

import (
	"strings"

	"shamash/internal/paramreader"
	"shamash/internal/policy"
)

// bannedSuffixesRule implements naming.bannedSuffixes (spec.md §4.6).
type bannedSuffixesRule struct{}

func (bannedSuffixesRule) ID() string { return "naming.bannedSuffixes" }

func (bannedSuffixesRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	banned, err := r.RequireStringList("banned", true)
	if err != nil {
		return nil, err
	}
	applyTo, err := r.OptionalEnum("applyTo", []string{"classes", "methods", "fields", "all"}, "all")
	if err != nil {
		return nil, err
	}
	caseSensitive, err := r.OptionalBool("caseSensitive", true)
	if err != nil {
		return nil, err
	}
	applyToRoles, err := r.OptionalStringList("applyToRoles", nil)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		if len(applyToRoles) > 0 {
			roleID, hasRole := ctx.Roles.Resolve(c)
			if !hasRole || !contains(applyToRoles, roleID) {
				continue
			}
		}

		if applyTo == "classes" || applyTo == "all" {
			if suffix, ok := matchSuffix(c.SimpleName, banned, caseSensitive); ok {
				f := newFinding(ctx, def.CanonicalID(), "class name ends with banned suffix "+suffix, severityOf(def), c)
				f.Data["suffix"] = suffix
				findings = append(findings, f)
			}
		}
		if applyTo == "methods" || applyTo == "all" {
			for _, m := range ctx.Index.MethodsOf(c.Type.FQN) {
				if suffix, ok := matchSuffix(m.Name, banned, caseSensitive); ok {
					f := newFinding(ctx, def.CanonicalID(), "method name ends with banned suffix "+suffix, severityOf(def), c)
					f.Member = m.Name
					f.Data["suffix"] = suffix
					findings = append(findings, f)
				}
			}
		}
		if applyTo == "fields" || applyTo == "all" {
			for _, fd := range ctx.Index.FieldsOf(c.Type.FQN) {
				if suffix, ok := matchSuffix(fd.Name, banned, caseSensitive); ok {
					f := newFinding(ctx, def.CanonicalID(), "field name ends with banned suffix "+suffix, severityOf(def), c)
					f.Member = fd.Name
					f.Data["suffix"] = suffix
					findings = append(findings, f)
				}
			}
		}
	}
	return findings, nil
}

func matchSuffix(name string, suffixes []string, caseSensitive bool) (string, bool) {
	n := name
	if !caseSensitive {
		n = strings.ToLower(n)
	}
	for _, s := range suffixes {
		cand := s
		if !caseSensitive {
			cand = strings.ToLower(cand)
		}
		if strings.HasSuffix(n, cand) {
			return s, true
		}
	}
	return "", false
}

func severityOf(def policy.RuleDef) Severity {
	switch strings.ToLower(def.Severity) {
	case "warning":
		return SeverityWarning
	case "info":
		return SeverityInfo
	default:
		return SeverityError
	}
}

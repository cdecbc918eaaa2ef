package rules

import (
	"fmt"
	"regexp"

	"shamash/internal/classfile"
	"shamash/internal/facts"
	"shamash/internal/paramreader"
	"shamash/internal/policy"
)

// forbiddenAnnotationUsageRule implements api.forbiddenAnnotationUsage.
type forbiddenAnnotationUsageRule struct{}

func (forbiddenAnnotationUsageRule) ID() string { return "api.forbiddenAnnotationUsage" }

func (forbiddenAnnotationUsageRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	patterns, err := r.RequireStringList("forbid", true)
	if err != nil {
		return nil, err
	}
	regexes, err := compileAll(patterns)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		for _, a := range c.Annotations {
			if re, matched := firstMatch(regexes, a); matched {
				f := newFinding(ctx, def.CanonicalID(), "class carries forbidden annotation "+a, severityOf(def), c)
				f.Data["annotation"] = a
				f.Data["pattern"] = re.String()
				findings = append(findings, f)
			}
		}
		for _, m := range ctx.Index.MethodsOf(c.Type.FQN) {
			for _, a := range m.Annotations {
				if re, matched := firstMatch(regexes, a); matched {
					f := newFinding(ctx, def.CanonicalID(), "method carries forbidden annotation "+a, severityOf(def), c)
					f.Member = m.Name
					f.Data["annotation"] = a
					f.Data["pattern"] = re.String()
					findings = append(findings, f)
				}
			}
		}
		for _, fd := range ctx.Index.FieldsOf(c.Type.FQN) {
			for _, a := range fd.Annotations {
				if re, matched := firstMatch(regexes, a); matched {
					f := newFinding(ctx, def.CanonicalID(), "field carries forbidden annotation "+a, severityOf(def), c)
					f.Member = fd.Name
					f.Data["annotation"] = a
					f.Data["pattern"] = re.String()
					findings = append(findings, f)
				}
			}
		}
	}
	return findings, nil
}

// forbiddenInternalNamePatternsRule implements api.forbiddenInternalNamePatterns:
// a public-visibility class whose internal (slash-separated) name matches a
// forbidden regex is flagged, since a public type IS the API surface other modules
// bind against.
type forbiddenInternalNamePatternsRule struct{}

func (forbiddenInternalNamePatternsRule) ID() string { return "api.forbiddenInternalNamePatterns" }

func (forbiddenInternalNamePatternsRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	patterns, err := r.RequireStringList("forbid", true)
	if err != nil {
		return nil, err
	}
	regexes, err := compileAll(patterns)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		if classfile.VisibilityOf(c.AccessFlags) != classfile.VisibilityPublic {
			continue
		}
		if re, matched := firstMatch(regexes, c.Type.InternalName); matched {
			f := newFinding(ctx, def.CanonicalID(), "public class name matches forbidden pattern "+re.String(), severityOf(def), c)
			f.Data["pattern"] = re.String()
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// maxPublicTypesRule implements api.maxPublicTypes: a single repo-wide cap
// on the count of public classes in scope, reported once against the
// alphabetically-first of those counted public classes so export consumers
// still get a concrete, stable anchor location.
type maxPublicTypesRule struct{}

func (maxPublicTypesRule) ID() string { return "api.maxPublicTypes" }

func (maxPublicTypesRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	max, err := r.RequireInt("max")
	if err != nil {
		return nil, err
	}

	count := 0
	var anchor *facts.ClassFact
	for i, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) || classfile.VisibilityOf(c.AccessFlags) != classfile.VisibilityPublic {
			continue
		}
		count++
		if anchor == nil || c.Type.FQN < anchor.Type.FQN {
			anchor = &ctx.Index.Classes[i]
		}
	}
	if anchor == nil || count <= max {
		return nil, nil
	}
	f := newFinding(ctx, def.CanonicalID(), fmt.Sprintf("%d public types in scope, exceeding the limit of %d", count, max), severityOf(def), *anchor)
	f.Data["count"] = fmt.Sprint(count)
	f.Data["max"] = fmt.Sprint(max)
	return []Finding{f}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		out[i] = re
	}
	return out, nil
}

func firstMatch(regexes []*regexp.Regexp, s string) (*regexp.Regexp, bool) {
	for _, re := range regexes {
		if re.MatchString(s) {
			return re, true
		}
	}
	return nil, false
}

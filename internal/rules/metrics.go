package rules

import (
	"fmt"
	"regexp"

	"shamash/internal/classfile"
	"shamash/internal/facts"
	"shamash/internal/paramreader"
	"shamash/internal/policy"
)

// CountKind discriminates which subset of a class's declared methods a
// metrics rule counts (spec.md §4.6).
type CountKind string

const (
	CountDeclaredMethods CountKind = "DECLARED_METHODS"
	CountPublicMethods   CountKind = "PUBLIC_METHODS"
	CountPrivateMethods  CountKind = "PRIVATE_METHODS"
)

func countMethods(methods []facts.MethodFact, kinds []string, ignoreNameRegex *regexp.Regexp) int {
	if len(kinds) == 0 {
		kinds = []string{string(CountDeclaredMethods)}
	}
	n := 0
	for _, m := range methods {
		if m.IsConstructor {
			continue
		}
		if ignoreNameRegex != nil && ignoreNameRegex.MatchString(m.Name) {
			continue
		}
		for _, k := range kinds {
			switch CountKind(k) {
			case CountDeclaredMethods:
				n++
			case CountPublicMethods:
				if m.Visibility == classfile.VisibilityPublic {
					n++
				}
			case CountPrivateMethods:
				if m.Visibility == classfile.VisibilityPrivate {
					n++
				}
			}
		}
	}
	return n
}

// maxMethodsByRoleRule implements metrics.maxMethodsByRole.
type maxMethodsByRoleRule struct{}

func (maxMethodsByRoleRule) ID() string { return "metrics.maxMethodsByRole" }

func (maxMethodsByRoleRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	limitsReader, err := r.RequireMap("limits")
	if err != nil {
		return nil, err
	}
	limits := make(map[string]int)
	for _, role := range limitsReader.Keys() {
		v, err := limitsReader.RequireInt(role)
		if err != nil {
			return nil, err
		}
		limits[role] = v
	}
	countKinds, err := r.OptionalStringList("countKinds", nil)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		roleID, ok := ctx.Roles.Resolve(c)
		if !ok {
			continue
		}
		limit, configured := limits[roleID]
		if !configured {
			continue
		}
		count := countMethods(ctx.Index.MethodsOf(c.Type.FQN), countKinds, nil)
		if count > limit {
			f := newFinding(ctx, def.CanonicalID(), fmt.Sprintf("class has %d methods, exceeding the %d limit for role %s", count, limit, roleID), severityOf(def), c)
			f.Data["count"] = fmt.Sprint(count)
			f.Data["limit"] = fmt.Sprint(limit)
			f.Data["role"] = roleID
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// maxMethodsPerClassRule implements metrics.maxMethodsPerClass.
type maxMethodsPerClassRule struct{}

func (maxMethodsPerClassRule) ID() string { return "metrics.maxMethodsPerClass" }

func (maxMethodsPerClassRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	max, err := r.RequireInt("max")
	if err != nil {
		return nil, err
	}
	countKinds, err := r.OptionalStringList("countKinds", nil)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		count := countMethods(ctx.Index.MethodsOf(c.Type.FQN), countKinds, nil)
		if count > max {
			f := newFinding(ctx, def.CanonicalID(), fmt.Sprintf("class has %d methods, exceeding the limit of %d", count, max), severityOf(def), c)
			f.Data["count"] = fmt.Sprint(count)
			f.Data["max"] = fmt.Sprint(max)
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// maxFieldsPerClassRule implements metrics.maxFieldsPerClass.
type maxFieldsPerClassRule struct{}

func (maxFieldsPerClassRule) ID() string { return "metrics.maxFieldsPerClass" }

func (maxFieldsPerClassRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	max, err := r.RequireInt("max")
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		count := len(ctx.Index.FieldsOf(c.Type.FQN))
		if count > max {
			f := newFinding(ctx, def.CanonicalID(), fmt.Sprintf("class has %d fields, exceeding the limit of %d", count, max), severityOf(def), c)
			f.Data["count"] = fmt.Sprint(count)
			f.Data["max"] = fmt.Sprint(max)
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// couplingCapRule implements metrics.maxFanIn / metrics.maxFanOut /
// metrics.maxPackageSpread, each a cap over one of the graph's per-class
// coupling metrics.
type couplingCapRule struct {
	id     string
	metric string // "fanIn" | "fanOut" | "packageSpread"
}

func (r couplingCapRule) ID() string { return r.id }

func (rule couplingCapRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	max, err := r.RequireInt("max")
	if err != nil {
		return nil, err
	}
	includeExternal, err := r.OptionalBool("includeExternal", false)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		value := couplingValue(ctx, c.Type.FQN, rule.metric, includeExternal)
		if value > max {
			f := newFinding(ctx, def.CanonicalID(), fmt.Sprintf("%s is %d, exceeding the limit of %d", rule.metric, value, max), severityOf(def), c)
			f.Data["value"] = fmt.Sprint(value)
			f.Data["max"] = fmt.Sprint(max)
			findings = append(findings, f)
		}
	}
	return findings, nil
}

func couplingValue(ctx EvalContext, fqn, metric string, includeExternal bool) int {
	switch metric {
	case "fanIn":
		n := 0
		for _, e := range ctx.Index.IncomingEdges(fqn) {
			if !includeExternal && !ctx.Index.IsScanned(e.From.FQN) {
				continue
			}
			n++
		}
		return n
	case "fanOut":
		n := 0
		for _, e := range ctx.Index.OutgoingEdges(fqn) {
			if !includeExternal && !ctx.Index.IsScanned(e.To.FQN) {
				continue
			}
			n++
		}
		return n
	case "packageSpread":
		seen := make(map[string]bool)
		for _, e := range ctx.Index.OutgoingEdges(fqn) {
			if !includeExternal && !ctx.Index.IsScanned(e.To.FQN) {
				continue
			}
			seen[packageOfExternal(e.To.FQN)] = true
		}
		return len(seen)
	default:
		return 0
	}
}

package rules

import (
	"fmt"
	"regexp"

	"shamash/internal/paramreader"
	"shamash/internal/policy"
)

type edgePair struct {
	From    string
	To      []string
	Message string
}

func readEdgePairs(r *paramreader.Reader, key string) ([]edgePair, error) {
	readers, err := r.RequireMapList(key, true)
	if err != nil {
		return nil, err
	}
	pairs := make([]edgePair, 0, len(readers))
	for _, pr := range readers {
		from, err := pr.RequireString("from")
		if err != nil {
			return nil, err
		}
		to, err := pr.RequireStringList("to", true)
		if err != nil {
			return nil, err
		}
		msg, err := pr.OptionalString("message", "")
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, edgePair{From: from, To: to, Message: msg})
	}
	return pairs, nil
}

// roleDependencyRule implements both arch.forbiddenRoleDependencies and
// arch.allowedRoleDependencies: the shape is symmetric, only the verdict
// polarity (forbid vs. require-membership) differs.
type roleDependencyRule struct {
	id       string
	pairsKey string
	allow    bool // true = allowedRoleDependencies (violation when edge is NOT listed)
}

func (r roleDependencyRule) ID() string { return r.id }

func (rule roleDependencyRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	pairs, err := readEdgePairs(r, rule.pairsKey)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		fromRole, ok := ctx.Roles.Resolve(c)
		if !ok {
			continue
		}
		for _, edge := range ctx.Index.OutgoingEdges(c.Type.FQN) {
			target, found := ctx.Index.ClassByFQN(edge.To.FQN)
			if !found {
				continue
			}
			toRole, ok := ctx.Roles.Resolve(target)
			if !ok {
				continue
			}
			listed := edgeListed(pairs, fromRole, toRole)
			violated := listed
			if rule.allow {
				violated = !listed
			}
			if !violated {
				continue
			}
			f := newFinding(ctx, def.CanonicalID(), dependencyMessage(rule.allow, fromRole, toRole, pairs, fromRole, toRole), severityOf(def), c)
			f.Data["fromRole"] = fromRole
			f.Data["toRole"] = toRole
			f.Data["targetClass"] = target.Type.FQN
			findings = append(findings, f)
		}
	}
	return findings, nil
}

func edgeListed(pairs []edgePair, from, to string) bool {
	for _, p := range pairs {
		if p.From == from && contains(p.To, to) {
			return true
		}
	}
	return false
}

func dependencyMessage(allow bool, from, to string, pairs []edgePair, fromRole, toRole string) string {
	for _, p := range pairs {
		if p.From == fromRole && contains(p.To, toRole) && p.Message != "" {
			return p.Message
		}
	}
	if allow {
		return fmt.Sprintf("role %s must not depend on role %s (not in allowed list)", from, to)
	}
	return fmt.Sprintf("role %s must not depend on role %s", from, to)
}

// packageDependencyRule implements arch.forbiddenPackages / arch.allowedPackages:
// the same symmetric shape, but pairs match on compiled package regexes
// instead of role ids.
type packageDependencyRule struct {
	id       string
	pairsKey string
	allow    bool
}

func (r packageDependencyRule) ID() string { return r.id }

func (rule packageDependencyRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	pairs, err := readEdgePairs(r, rule.pairsKey)
	if err != nil {
		return nil, err
	}
	compiledFrom := make([]*regexp.Regexp, len(pairs))
	compiledTo := make([][]*regexp.Regexp, len(pairs))
	for i, p := range pairs {
		re, err := regexp.Compile(p.From)
		if err != nil {
			return nil, fmt.Errorf("pair %d: from: %w", i, err)
		}
		compiledFrom[i] = re
		tos := make([]*regexp.Regexp, len(p.To))
		for j, t := range p.To {
			re, err := regexp.Compile(t)
			if err != nil {
				return nil, fmt.Errorf("pair %d: to[%d]: %w", i, j, err)
			}
			tos[j] = re
		}
		compiledTo[i] = tos
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		for _, edge := range ctx.Index.OutgoingEdges(c.Type.FQN) {
			target, found := ctx.Index.ClassByFQN(edge.To.FQN)
			var toPackage string
			if found {
				toPackage = target.Package
			} else {
				toPackage = packageOfExternal(edge.To.FQN)
			}

			listed := false
			matchedMsg := ""
			for i := range pairs {
				if compiledFrom[i].MatchString(c.Package) {
					for _, toRe := range compiledTo[i] {
						if toRe.MatchString(toPackage) {
							listed = true
							matchedMsg = pairs[i].Message
							break
						}
					}
				}
				if listed {
					break
				}
			}
			violated := listed
			if rule.allow {
				violated = !listed
			}
			if !violated {
				continue
			}
			msg := matchedMsg
			if msg == "" {
				if rule.allow {
					msg = fmt.Sprintf("package %s must not depend on package %s (not in allowed list)", c.Package, toPackage)
				} else {
					msg = fmt.Sprintf("package %s must not depend on package %s", c.Package, toPackage)
				}
			}
			f := newFinding(ctx, def.CanonicalID(), msg, severityOf(def), c)
			f.Data["toPackage"] = toPackage
			findings = append(findings, f)
		}
	}
	return findings, nil
}

func packageOfExternal(fqn string) string {
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '.' {
			return fqn[:i]
		}
	}
	return ""
}

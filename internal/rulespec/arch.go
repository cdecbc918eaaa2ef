package rulespec

import "shamash/internal/paramreader"

// edgePairSpec implements the four symmetric role/package-edge policy
// rules: arch.forbiddenRoleDependencies, arch.allowedRoleDependencies,
// arch.forbiddenPackages, arch.allowedPackages. They all share the same
// {kinds[], <pairsKey>[{from,to[],message?}]} shape (spec.md §4.6); only
// the id, the pairs key name, and whether "from"/"to" are role ids or
// package regexes differ.
type edgePairSpec struct {
	id        string
	pairsKey  string
	refsRoles bool
}

func (s edgePairSpec) ID() string { return s.id }

func (s edgePairSpec) AllowedParams() []string {
	return []string{"kinds", s.pairsKey}
}

func (s edgePairSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())

	if _, err := r.OptionalStringList("kinds", nil); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}

	pairs, err := r.RequireMapList(s.pairsKey, true)
	if err != nil {
		return append(v, errV(r.Path(), "%s", err))
	}
	for _, sub := range pairs {
		from, err := sub.RequireString("from")
		if err != nil {
			v = append(v, errV(sub.Path(), "%s", err))
		} else if s.refsRoles && !ctx.HasRole(from) {
			v = append(v, errV(sub.Path()+".from", "unknown role id %q", from))
		}
		if !s.refsRoles {
			v = append(v, compileRegexes(sub, "from", []string{from})...)
		}

		to, err := sub.RequireStringList("to", true)
		if err != nil {
			v = append(v, errV(sub.Path(), "%s", err))
			continue
		}
		if s.refsRoles {
			for _, id := range to {
				if !ctx.HasRole(id) {
					v = append(v, errV(sub.Path()+".to", "unknown role id %q", id))
				}
			}
		} else {
			v = append(v, compileRegexes(sub, "to", to)...)
		}
		if _, err := sub.OptionalString("message", ""); err != nil {
			v = append(v, errV(sub.Path(), "%s", err))
		}
	}
	return v
}

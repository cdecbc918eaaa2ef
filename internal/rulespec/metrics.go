package rulespec

import (
	"fmt"

	"shamash/internal/paramreader"
)

// maxMethodsByRoleSpec validates metrics.maxMethodsByRole: a per-role
// method-count cap.
type maxMethodsByRoleSpec struct{}

func (maxMethodsByRoleSpec) ID() string              { return "metrics.maxMethodsByRole" }
func (maxMethodsByRoleSpec) AllowedParams() []string { return []string{"limits", "countKinds"} }

func (s maxMethodsByRoleSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	v = append(v, validateCountKinds(r)...)

	limits, err := r.RequireMap("limits")
	if err != nil {
		return append(v, errV(r.Path(), "%s", err))
	}
	if len(limits.Keys()) == 0 {
		v = append(v, errV(limits.Path(), "must declare at least one role limit"))
	}
	for _, role := range limits.Keys() {
		if !ctx.HasRole(role) {
			v = append(v, errV(limits.Path(), "unknown role id %q", role))
		}
		if n, err := limits.RequireNonNegativeInt(role); err != nil {
			v = append(v, errV(limits.Path(), "%s", err))
		} else if n == 0 {
			v = append(v, warnV(limits.Path()+"."+role, "limit of 0 forbids any method on this role"))
		}
	}
	return v
}

func validateCountKinds(r *paramreader.Reader) []Violation {
	kinds, err := r.OptionalStringList("countKinds", []string{"DECLARED_METHODS"})
	if err != nil {
		return []Violation{errV(r.Path(), "%s", err)}
	}
	allowed := map[string]bool{"DECLARED_METHODS": true, "PUBLIC_METHODS": true, "PRIVATE_METHODS": true}
	var v []Violation
	for i, k := range kinds {
		if !allowed[k] {
			v = append(v, errV(fmt.Sprintf("%s.countKinds[%d]", r.Path(), i), "unknown counting kind %q", k))
		}
	}
	return v
}

// maxCountSpec implements metrics.maxMethodsPerClass and
// metrics.maxFieldsPerClass, both a bare non-negative "max" cap, the
// former also carrying countKinds.
type maxCountSpec struct {
	id              string
	withCountKinds  bool
}

func (s maxCountSpec) ID() string { return s.id }

func (s maxCountSpec) AllowedParams() []string {
	if s.withCountKinds {
		return []string{"max", "countKinds"}
	}
	return []string{"max"}
}

func (s maxCountSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	if _, err := r.RequireNonNegativeInt("max"); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	if s.withCountKinds {
		v = append(v, validateCountKinds(r)...)
	}
	return v
}

// couplingCapSpec implements metrics.maxFanIn, metrics.maxFanOut, and
// metrics.maxPackageSpread: {max, includeExternal?}.
type couplingCapSpec struct {
	id string
}

func (s couplingCapSpec) ID() string              { return s.id }
func (s couplingCapSpec) AllowedParams() []string { return []string{"max", "includeExternal"} }

func (s couplingCapSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	if _, err := r.RequireNonNegativeInt("max"); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	if _, err := r.OptionalBool("includeExternal", false); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	return v
}

package rulespec

import "shamash/internal/paramreader"

var graphGranularities = []string{"class", "package", "module"}

// cycleGateSpec implements graph.noCycles and graph.maxCycles:
// {granularity, includeExternal}, the latter additionally takes "max".
type cycleGateSpec struct {
	id      string
	withMax bool
}

func (s cycleGateSpec) ID() string { return s.id }

func (s cycleGateSpec) AllowedParams() []string {
	if s.withMax {
		return []string{"granularity", "includeExternal", "max"}
	}
	return []string{"granularity", "includeExternal"}
}

func (s cycleGateSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	if _, err := r.OptionalEnum("granularity", graphGranularities, "class"); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	if _, err := r.OptionalBool("includeExternal", false); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	if s.withMax {
		if _, err := r.RequireNonNegativeInt("max"); err != nil {
			v = append(v, errV(r.Path(), "%s", err))
		}
	}
	return v
}

// edgeCountGateSpec implements graph.maxEdgeCount and
// graph.maxDependencyDensity, both a bare {max} (density's max is a ratio,
// not an integer count, so it accepts a fractional value).
type edgeCountGateSpec struct {
	id          string
	fractional  bool
}

func (s edgeCountGateSpec) ID() string              { return s.id }
func (s edgeCountGateSpec) AllowedParams() []string { return []string{"max"} }

func (s edgeCountGateSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	if s.fractional {
		if !r.Has("max") {
			v = append(v, errV(r.Path()+".max", "required parameter missing"))
		}
	} else if _, err := r.RequireNonNegativeInt("max"); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	return v
}

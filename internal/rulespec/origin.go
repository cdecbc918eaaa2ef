package rulespec

import "shamash/internal/paramreader"

// forbiddenJarDependenciesSpec validates
// origin.forbiddenJarDependencies: {forbidden[]}, each a regex over the
// container path of the archive a dependency target came from.
type forbiddenJarDependenciesSpec struct{}

func (forbiddenJarDependenciesSpec) ID() string              { return "origin.forbiddenJarDependencies" }
func (forbiddenJarDependenciesSpec) AllowedParams() []string { return []string{"forbidden"} }

func (s forbiddenJarDependenciesSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	if _, err := r.RequireStringList("forbidden", true); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	return v
}

// allowOnlyRootSpec validates origin.allowOnlyRoot: {rootPackage}.
type allowOnlyRootSpec struct{}

func (allowOnlyRootSpec) ID() string              { return "origin.allowOnlyRoot" }
func (allowOnlyRootSpec) AllowedParams() []string { return []string{"rootPackage"} }

func (s allowOnlyRootSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	if _, err := r.RequireString("rootPackage"); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	return v
}

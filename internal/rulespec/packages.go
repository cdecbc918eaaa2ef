package rulespec

import "shamash/internal/paramreader"

// rolePlacementSpec validates packages.rolePlacement: each referenced role
// must map to at least one package regex it must live under.
type rolePlacementSpec struct{}

func (rolePlacementSpec) ID() string                { return "packages.rolePlacement" }
func (rolePlacementSpec) AllowedParams() []string    { return []string{"expected"} }

func (s rolePlacementSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())

	expected, err := r.RequireMap("expected")
	if err != nil {
		return append(v, errV(r.Path(), "%s", err))
	}
	if len(expected.Keys()) == 0 {
		v = append(v, errV(expected.Path(), "must declare at least one role"))
	}
	for _, role := range expected.Keys() {
		if !ctx.HasRole(role) {
			v = append(v, errV(expected.Path(), "unknown role id %q", role))
		}
		entry, err := expected.RequireMap(role)
		if err != nil {
			v = append(v, errV(expected.Path(), "%s", err))
			continue
		}
		pattern, err := entry.RequireString("packageRegex")
		if err != nil {
			v = append(v, errV(entry.Path(), "%s", err))
			continue
		}
		v = append(v, compileRegexes(entry, "packageRegex", []string{pattern})...)
	}
	return v
}

// rootPackageSpec validates packages.rootPackage: AUTO infers the root
// package from the facts at runtime; EXPLICIT requires a value.
type rootPackageSpec struct{}

func (rootPackageSpec) ID() string             { return "packages.rootPackage" }
func (rootPackageSpec) AllowedParams() []string { return []string{"mode", "value"} }

func (s rootPackageSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())

	mode, err := r.OptionalEnum("mode", []string{"AUTO", "EXPLICIT"}, "AUTO")
	if err != nil {
		return append(v, errV(r.Path(), "%s", err))
	}
	value, _ := r.OptionalString("value", "")
	if mode == "EXPLICIT" && value == "" {
		v = append(v, errV(r.Path()+".value", "required when mode is EXPLICIT"))
	}
	if mode == "AUTO" && value != "" {
		v = append(v, warnV(r.Path()+".value", "ignored when mode is AUTO"))
	}
	return v
}

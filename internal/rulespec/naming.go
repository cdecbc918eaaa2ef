package rulespec

import "shamash/internal/paramreader"

// bannedSuffixesSpec validates naming.bannedSuffixes: class/method/field
// names must not end with any of the configured suffixes (spec.md §4.6).
type bannedSuffixesSpec struct{}

func (bannedSuffixesSpec) ID() string { return "naming.bannedSuffixes" }

func (bannedSuffixesSpec) AllowedParams() []string {
	return []string{"banned", "applyTo", "caseSensitive", "applyToRoles"}
}

func (s bannedSuffixesSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())

	if _, err := r.RequireStringList("banned", true); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	if _, err := r.OptionalEnum("applyTo", []string{"classes", "methods", "fields", "all"}, "all"); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	if _, err := r.OptionalBool("caseSensitive", true); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	roles, err := r.OptionalStringList("applyToRoles", nil)
	if err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	for _, role := range roles {
		if !ctx.HasRole(role) {
			v = append(v, errV(r.Path()+".applyToRoles", "unknown role id %q", role))
		}
	}
	return v
}

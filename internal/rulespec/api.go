package rulespec

import "shamash/internal/paramreader"

// forbiddenAnnotationUsageSpec validates api.forbiddenAnnotationUsage:
// {forbid[]} where each entry is a regex over an annotation FQN.
type forbiddenAnnotationUsageSpec struct{}

func (forbiddenAnnotationUsageSpec) ID() string              { return "api.forbiddenAnnotationUsage" }
func (forbiddenAnnotationUsageSpec) AllowedParams() []string { return []string{"forbid"} }

func (s forbiddenAnnotationUsageSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	patterns, err := r.RequireStringList("forbid", true)
	if err != nil {
		return append(v, errV(r.Path(), "%s", err))
	}
	return append(v, compileRegexes(r, "forbid", patterns)...)
}

// forbiddenInternalNamePatternsSpec validates
// api.forbiddenInternalNamePatterns: {forbid[]}, regexes over internal
// names of public types.
type forbiddenInternalNamePatternsSpec struct{}

func (forbiddenInternalNamePatternsSpec) ID() string { return "api.forbiddenInternalNamePatterns" }
func (forbiddenInternalNamePatternsSpec) AllowedParams() []string {
	return []string{"forbid"}
}

func (s forbiddenInternalNamePatternsSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	patterns, err := r.RequireStringList("forbid", true)
	if err != nil {
		return append(v, errV(r.Path(), "%s", err))
	}
	return append(v, compileRegexes(r, "forbid", patterns)...)
}

// maxPublicTypesSpec validates api.maxPublicTypes: {max}.
type maxPublicTypesSpec struct{}

func (maxPublicTypesSpec) ID() string              { return "api.maxPublicTypes" }
func (maxPublicTypesSpec) AllowedParams() []string { return []string{"max"} }

func (s maxPublicTypesSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())
	if _, err := r.RequireNonNegativeInt("max"); err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	}
	return v
}

package rulespec

import "shamash/internal/paramreader"

// unusedPrivateMembersSpec validates deadcode.unusedPrivateMembers:
// {check{fields,methods,classes}, ignoreIf{annotation?, nameRegex?}}.
type unusedPrivateMembersSpec struct{}

func (unusedPrivateMembersSpec) ID() string { return "deadcode.unusedPrivateMembers" }

func (unusedPrivateMembersSpec) AllowedParams() []string {
	return []string{"check", "ignoreIf"}
}

func (s unusedPrivateMembersSpec) Validate(r *paramreader.Reader, ctx Context) []Violation {
	v := unknownKeyViolations(r, s.AllowedParams())

	check, err := r.OptionalMap("check")
	if err != nil {
		v = append(v, errV(r.Path(), "%s", err))
	} else {
		checkAllowed := []string{"fields", "methods", "classes"}
		v = append(v, unknownKeyViolations(check, checkAllowed)...)
		anyEnabled := false
		for _, k := range checkAllowed {
			enabled, err := check.OptionalBool(k, true)
			if err != nil {
				v = append(v, errV(check.Path(), "%s", err))
				continue
			}
			anyEnabled = anyEnabled || enabled
		}
		if !anyEnabled {
			v = append(v, warnV(check.Path(), "all member kinds disabled; rule will never report"))
		}
	}

	ignoreIf, err := r.OptionalMap("ignoreIf")
	if err != nil {
		return append(v, errV(r.Path(), "%s", err))
	}
	v = append(v, unknownKeyViolations(ignoreIf, []string{"annotation", "nameRegex"})...)
	if pattern, err := ignoreIf.OptionalString("nameRegex", ""); err != nil {
		v = append(v, errV(ignoreIf.Path(), "%s", err))
	} else if pattern != "" {
		v = append(v, compileRegexes(ignoreIf, "nameRegex", []string{pattern})...)
	}
	return v
}

package rules

import (
	"regexp"
	"strings"

	"shamash/internal/facts"
	"shamash/internal/paramreader"
	"shamash/internal/policy"
)

// rolePlacementRule implements packages.rolePlacement.
type rolePlacementRule struct{}

func (rolePlacementRule) ID() string { return "packages.rolePlacement" }

func (rolePlacementRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	expectedReader, err := r.RequireMap("expected")
	if err != nil {
		return nil, err
	}
	patterns := make(map[string]*regexp.Regexp)
	for _, role := range expectedReader.Keys() {
		roleReader, err := expectedReader.RequireMap(role)
		if err != nil {
			return nil, err
		}
		pattern, err := roleReader.RequireString("packageRegex")
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		patterns[role] = re
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
		re, configured := patterns[roleID]
		if !configured {
			continue
		}
		if !re.MatchString(c.Package) {
			f := newFinding(ctx, def.CanonicalID(), "class with role "+roleID+" is not under the expected package", severityOf(def), c)
			f.Data["role"] = roleID
			f.Data["packageRegex"] = re.String()
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// rootPackageRule implements packages.rootPackage.
type rootPackageRule struct{}

func (rootPackageRule) ID() string { return "packages.rootPackage" }

func (rootPackageRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	mode, err := r.OptionalEnum("mode", []string{"AUTO", "EXPLICIT"}, "AUTO")
	if err != nil {
		return nil, err
	}
	root, err := r.OptionalString("value", "")
	if err != nil {
		return nil, err
	}

	if mode == "AUTO" {
		root = inferRootPackage(ctx.Index.Classes)
	}
	if root == "" {
		return nil, nil
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		if c.Package != root && !strings.HasPrefix(c.Package, root+".") {
			f := newFinding(ctx, def.CanonicalID(), "class is outside the expected root package "+root, severityOf(def), c)
			f.Data["rootPackage"] = root
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// inferRootPackage picks the longest common dot-prefix across every scanned
// class's package, the natural AUTO-mode proxy for a project's root package.
func inferRootPackage(classes []facts.ClassFact) string {
	if len(classes) == 0 {
		return ""
	}
	common := strings.Split(classes[0].Package, ".")
	for _, c := range classes[1:] {
		segs := strings.Split(c.Package, ".")
		common = commonPrefix(common, segs)
		if len(common) == 0 {
			return ""
		}
	}
	return strings.Join(common, ".")
}

func commonPrefix(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

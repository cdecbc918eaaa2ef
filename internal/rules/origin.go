package rules

import (
	"strings"

	"shamash/internal/facts"
	"shamash/internal/paramreader"
	"shamash/internal/policy"
)

// forbiddenJarDependenciesRule implements origin.forbiddenJarDependencies: a
// class is flagged if any of its dependency targets resolves to a class
// sourced from an archive whose container path matches a forbidden pattern.
type forbiddenJarDependenciesRule struct{}

func (forbiddenJarDependenciesRule) ID() string { return "origin.forbiddenJarDependencies" }

func (forbiddenJarDependenciesRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	patterns, err := r.RequireStringList("forbidden", true)
	if err != nil {
		return nil, err
	}
	regexes, err := compileAll(patterns)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		for _, e := range ctx.Index.OutgoingEdges(c.Type.FQN) {
			target, found := ctx.Index.ClassByFQN(e.To.FQN)
			if !found || target.Location.OriginKind != facts.OriginArchiveEntry {
				continue
			}
			re, matched := firstMatch(regexes, target.Location.ContainerPath)
			if !matched {
				continue
			}
			f := newFinding(ctx, def.CanonicalID(), "depends on class from forbidden jar "+target.Location.ContainerPath, severityOf(def), c)
			f.Data["jar"] = target.Location.ContainerPath
			f.Data["pattern"] = re.String()
			f.Data["targetClass"] = target.Type.FQN
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// allowOnlyRootRule implements origin.allowOnlyRoot: every directory-sourced
// class must live on disk under a path matching the configured root package
// (dots mapped to path separators), catching classes checked into the
// wrong source tree even when their declared package name was edited to
// look compliant.
type allowOnlyRootRule struct{}

func (allowOnlyRootRule) ID() string { return "origin.allowOnlyRoot" }

func (allowOnlyRootRule) Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error) {
	r := paramreader.New(def.CanonicalID(), def.Params)
	rootPackage, err := r.RequireString("rootPackage")
	if err != nil {
		return nil, err
	}
	rootPath := strings.ReplaceAll(rootPackage, ".", "/")

	var findings []Finding
	for _, c := range ctx.Index.Classes {
		if !inScope(ctx, def, c) {
			continue
		}
		if c.Location.OriginKind != facts.OriginDirectoryClass {
			continue
		}
		if strings.Contains(filepathToSlash(c.Location.OriginPath), rootPath+"/") {
			continue
		}
		f := newFinding(ctx, def.CanonicalID(), "class origin is outside the allowed root package "+rootPackage, severityOf(def), c)
		f.Data["rootPackage"] = rootPackage
		f.Data["originPath"] = c.Location.OriginPath
		findings = append(findings, f)
	}
	return findings, nil
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

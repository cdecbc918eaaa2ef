package rules

import (
	"testing"

	"shamash/internal/classfile"
	"shamash/internal/facts"
	"shamash/internal/graph"
	"shamash/internal/policy"
	"shamash/internal/roles"
)

func testClass(pkg, simple string) facts.ClassFact {
	fqn := simple
	if pkg != "" {
		fqn = pkg + "." + simple
	}
	return facts.ClassFact{
		Type:       classfile.TypeRef{FQN: fqn, InternalName: internalName(fqn)},
		Package:    pkg,
		SimpleName: simple,
		Location:   facts.SourceLocation{OriginKind: facts.OriginDirectoryClass, OriginPath: pkg + "/" + simple + ".class"},
	}
}

func internalName(fqn string) string {
	out := []byte(fqn)
	for i, c := range out {
		if c == '.' {
			out[i] = '/'
		}
	}
	return string(out)
}

func testEdge(from, to facts.ClassFact, kind classfile.DependencyKind, detail string) facts.DependencyEdge {
	return facts.DependencyEdge{From: from.Type, To: to.Type, Kind: kind, Detail: detail}
}

func buildTestIndex(classes []facts.ClassFact, methods []facts.MethodFact, fields []facts.FieldFact, edges []facts.DependencyEdge) *facts.Index {
	byClass := make(map[string]*facts.ClassResult)
	var order []string
	for _, c := range classes {
		byClass[c.Type.FQN] = &facts.ClassResult{Class: c}
		order = append(order, c.Type.FQN)
	}
	for _, m := range methods {
		if r, ok := byClass[m.Owner.FQN]; ok {
			r.Methods = append(r.Methods, m)
		}
	}
	for _, fd := range fields {
		if r, ok := byClass[fd.Owner.FQN]; ok {
			r.Fields = append(r.Fields, fd)
		}
	}
	for _, e := range edges {
		if r, ok := byClass[e.From.FQN]; ok {
			r.Edges = append(r.Edges, e)
		}
	}
	results := make([]facts.ClassResult, 0, len(order))
	for _, fqn := range order {
		results = append(results, *byClass[fqn])
	}
	return facts.Build(results)
}

func noRoles(t *testing.T) *roles.Index {
	t.Helper()
	ix, err := roles.Compile(nil)
	if err != nil {
		t.Fatalf("compile empty roles: %v", err)
	}
	return ix
}

func rolesFrom(t *testing.T, defs []policy.RoleDef) *roles.Index {
	t.Helper()
	ix, err := roles.Compile(defs)
	if err != nil {
		t.Fatalf("compile roles: %v", err)
	}
	return ix
}

func evalCtx(idx *facts.Index, roleIdx *roles.Index) EvalContext {
	return EvalContext{Index: idx, Roles: roleIdx, Analysis: policy.AnalysisConfig{}}
}

func evalCtxWithGraph(idx *facts.Index, roleIdx *roles.Index, granularity graph.Granularity, includeExternal bool) EvalContext {
	g := graph.Build(idx, granularity, includeExternal)
	return EvalContext{Index: idx, Roles: roleIdx, GraphResults: BuildGraphResults(g, granularity, includeExternal)}
}

func ruleDef(typ, name string, params map[string]any) policy.RuleDef {
	return policy.RuleDef{Type: typ, Name: name, Params: params}
}

package rules

import (
	"testing"

	"shamash/internal/classfile"
	"shamash/internal/facts"
	"shamash/internal/policy"
)

func methodFact(owner facts.ClassFact, name string, vis classfile.Visibility) facts.MethodFact {
	return facts.MethodFact{Owner: owner.Type, Name: name, Visibility: vis}
}

func TestMaxMethodsPerClassFlagsOverLimit(t *testing.T) {
	c := testClass("com.acme", "Big")
	methods := []facts.MethodFact{
		methodFact(c, "a", classfile.VisibilityPublic),
		methodFact(c, "b", classfile.VisibilityPublic),
		methodFact(c, "c", classfile.VisibilityPrivate),
	}
	idx := buildTestIndex([]facts.ClassFact{c}, methods, nil, nil)
	ctx := evalCtx(idx, noRoles(t))
	def := ruleDef("metrics", "maxMethodsPerClass", map[string]any{"max": 2})

	findings, err := (maxMethodsPerClassRule{}).Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
}

func TestMaxMethodsPerClassCountsOnlyPublicWhenConfigured(t *testing.T) {
	c := testClass("com.acme", "Big")
	methods := []facts.MethodFact{
		methodFact(c, "a", classfile.VisibilityPublic),
		methodFact(c, "b", classfile.VisibilityPrivate),
		methodFact(c, "c", classfile.VisibilityPrivate),
	}
	idx := buildTestIndex([]facts.ClassFact{c}, methods, nil, nil)
	ctx := evalCtx(idx, noRoles(t))
	def := ruleDef("metrics", "maxMethodsPerClass", map[string]any{"max": 1, "countKinds": []any{"PUBLIC_METHODS"}})

	findings, err := (maxMethodsPerClassRule{}).Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings (1 public method within limit of 1), got %d", len(findings))
	}
}

func TestMaxMethodsByRolePerRoleLimit(t *testing.T) {
	c := testClass("com.acme.web", "UserController")
	methods := []facts.MethodFact{
		methodFact(c, "a", classfile.VisibilityPublic),
		methodFact(c, "b", classfile.VisibilityPublic),
	}
	idx := buildTestIndex([]facts.ClassFact{c}, methods, nil, nil)
	roleIdx := rolesFrom(t, []policy.RoleDef{
		{ID: "controller", Priority: 10, Matcher: map[string]any{"classNameEndsWith": "Controller"}},
	})
	ctx := evalCtx(idx, roleIdx)
	def := ruleDef("metrics", "maxMethodsByRole", map[string]any{"limits": map[string]any{"controller": 1}})

	findings, err := (maxMethodsByRoleRule{}).Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
}

func TestMaxFieldsPerClass(t *testing.T) {
	c := testClass("com.acme", "Big")
	fields := []facts.FieldFact{
		{Owner: c.Type, Name: "a"},
		{Owner: c.Type, Name: "b"},
	}
	idx := buildTestIndex([]facts.ClassFact{c}, nil, fields, nil)
	ctx := evalCtx(idx, noRoles(t))
	def := ruleDef("metrics", "maxFieldsPerClass", map[string]any{"max": 1})

	findings, err := (maxFieldsPerClassRule{}).Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
}

func TestMaxFanInExceeded(t *testing.T) {
	target := testClass("com.acme", "Hub")
	a := testClass("com.acme.a", "A")
	b := testClass("com.acme.b", "B")
	idx := buildTestIndex(
		[]facts.ClassFact{target, a, b},
		nil, nil,
		[]facts.DependencyEdge{
			testEdge(a, target, classfile.KindMethodCall, "m"),
			testEdge(b, target, classfile.KindMethodCall, "m"),
		},
	)
	ctx := evalCtx(idx, noRoles(t))
	def := ruleDef("metrics", "maxFanIn", map[string]any{"max": 1})

	rule := couplingCapRule{id: "metrics.maxFanIn", metric: "fanIn"}
	findings, err := rule.Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 || findings[0].ClassFQN != "com.acme.Hub" {
		t.Fatalf("expected Hub flagged for fan-in, got %+v", findings)
	}
}

func TestMaxPackageSpreadCountsDistinctTargetPackages(t *testing.T) {
	src := testClass("com.acme", "Source")
	a := testClass("com.acme.a", "A")
	b := testClass("com.acme.b", "B")
	idx := buildTestIndex(
		[]facts.ClassFact{src, a, b},
		nil, nil,
		[]facts.DependencyEdge{
			testEdge(src, a, classfile.KindMethodCall, "m"),
			testEdge(src, b, classfile.KindMethodCall, "m"),
		},
	)
	ctx := evalCtx(idx, noRoles(t))
	def := ruleDef("metrics", "maxPackageSpread", map[string]any{"max": 1})

	rule := couplingCapRule{id: "metrics.maxPackageSpread", metric: "packageSpread"}
	findings, err := rule.Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding (2 distinct packages > max 1), got %d", len(findings))
	}
}

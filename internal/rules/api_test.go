package rules

import (
	"testing"

	"shamash/internal/facts"
)

func TestForbiddenAnnotationUsageFlagsClassAnnotation(t *testing.T) {
	c := testClass("com.acme", "Widget")
	c.Annotations = []string{"org.junit.Ignore"}
	idx := buildTestIndex([]facts.ClassFact{c}, nil, nil, nil)
	ctx := evalCtx(idx, noRoles(t))
	def := ruleDef("api", "forbiddenAnnotationUsage", map[string]any{"forbid": []any{"^org\\.junit\\.Ignore$"}})

	findings, err := (forbiddenAnnotationUsageRule{}).Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
}

func TestForbiddenInternalNamePatternsOnlyChecksPublicClasses(t *testing.T) {
	c := testClass("com.acme.internal", "ImplDetail")
	c.AccessFlags = 0 // not public
	idx := buildTestIndex([]facts.ClassFact{c}, nil, nil, nil)
	ctx := evalCtx(idx, noRoles(t))
	def := ruleDef("api", "forbiddenInternalNamePatterns", map[string]any{"forbid": []any{"internal"}})

	findings, err := (forbiddenInternalNamePatternsRule{}).Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected package-private class to be skipped, got %d", len(findings))
	}
}

func TestForbiddenInternalNamePatternsFlagsPublicMatch(t *testing.T) {
	c := testClass("com.acme.internal", "ImplDetail")
	c.AccessFlags = 0x0001 // ACC_PUBLIC
	idx := buildTestIndex([]facts.ClassFact{c}, nil, nil, nil)
	ctx := evalCtx(idx, noRoles(t))
	def := ruleDef("api", "forbiddenInternalNamePatterns", map[string]any{"forbid": []any{"internal"}})

	findings, err := (forbiddenInternalNamePatternsRule{}).Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
}

func TestMaxPublicTypesFlagsOnceWithCount(t *testing.T) {
	classes := make([]facts.ClassFact, 0, 3)
	for _, name := range []string{"A", "B", "C"} {
		c := testClass("com.acme", name)
		c.AccessFlags = 0x0001
		classes = append(classes, c)
	}
	idx := buildTestIndex(classes, nil, nil, nil)
	ctx := evalCtx(idx, noRoles(t))
	def := ruleDef("api", "maxPublicTypes", map[string]any{"max": 2})

	findings, err := (maxPublicTypesRule{}).Evaluate(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected exactly 1 finding, got %d", len(findings))
	}
	if findings[0].Data["count"] != "3" {
		t.Errorf("expected count=3, got %v", findings[0].Data)
	}
}

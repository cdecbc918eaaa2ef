package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"shamash/internal/facts"
	"shamash/internal/policy"
)

type alwaysErrorRule struct{}

func (alwaysErrorRule) ID() string { return "test.alwaysError" }
func (alwaysErrorRule) Evaluate(EvalContext, policy.RuleDef) ([]Finding, error) {
	return nil, errors.New("boom")
}

type alwaysPanicRule struct{}

func (alwaysPanicRule) ID() string { return "test.alwaysPanic" }
func (alwaysPanicRule) Evaluate(EvalContext, policy.RuleDef) ([]Finding, error) {
	panic("kaboom")
}

func TestRunCollectsFindingsAcrossRules(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(bannedSuffixesRule{})

	c := testClass("com.acme", "WidgetImpl")
	idx := buildTestIndex([]facts.ClassFact{c}, nil, nil, nil)
	ctx := evalCtx(idx, noRoles(t))
	defs := []policy.RuleDef{
		{Type: "naming", Name: "bannedSuffixes", Params: map[string]any{"banned": []any{"Impl"}}},
	}

	findings, errs := Run(reg, ctx, defs)
	if len(errs) != 0 {
		t.Fatalf("expected no engine errors, got %v", errs)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
}

func TestRunConvertsRuleErrorToEngineError(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(alwaysErrorRule{})
	ctx := evalCtx(buildTestIndex(nil, nil, nil, nil), noRoles(t))
	defs := []policy.RuleDef{{Type: "test", Name: "alwaysError"}}

	findings, errs := Run(reg, ctx, defs)
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
	if len(errs) != 1 || errs[0].Phase != "rule:evaluate" {
		t.Fatalf("expected one rule:evaluate error, got %+v", errs)
	}
}

func TestRunRecoversFromPanicAsEngineError(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(alwaysPanicRule{})
	ctx := evalCtx(buildTestIndex(nil, nil, nil, nil), noRoles(t))
	defs := []policy.RuleDef{{Type: "test", Name: "alwaysPanic"}}

	findings, errs := Run(reg, ctx, defs)
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
	if len(errs) != 1 || errs[0].Phase != "rule:crash" {
		t.Fatalf("expected one rule:crash error, got %+v", errs)
	}
}

func TestRunDoesNotMutateTheFactIndex(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(bannedSuffixesRule{})

	c := testClass("com.acme", "WidgetImpl")
	idx := buildTestIndex([]facts.ClassFact{c}, nil, nil, nil)
	before := struct {
		Classes []facts.ClassFact
		Methods []facts.MethodFact
		Fields  []facts.FieldFact
		Edges   []facts.DependencyEdge
	}{idx.Classes, idx.Methods, idx.Fields, idx.Edges}

	ctx := evalCtx(idx, noRoles(t))
	defs := []policy.RuleDef{
		{Type: "naming", Name: "bannedSuffixes", Params: map[string]any{"banned": []any{"Impl"}}},
	}
	if _, errs := Run(reg, ctx, defs); len(errs) != 0 {
		t.Fatalf("expected no engine errors, got %v", errs)
	}

	after := struct {
		Classes []facts.ClassFact
		Methods []facts.MethodFact
		Fields  []facts.FieldFact
		Edges   []facts.DependencyEdge
	}{idx.Classes, idx.Methods, idx.Fields, idx.Edges}

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("rule evaluation mutated the fact index (-before +after):\n%s", diff)
	}
}

func TestRunReportsUnregisteredRuleLookupError(t *testing.T) {
	reg := NewRegistry()
	ctx := evalCtx(buildTestIndex(nil, nil, nil, nil), noRoles(t))
	defs := []policy.RuleDef{{Type: "nope", Name: "missing"}}

	findings, errs := Run(reg, ctx, defs)
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
	if len(errs) != 1 || errs[0].Phase != "rule:lookup" {
		t.Fatalf("expected one rule:lookup error, got %+v", errs)
	}
}

func TestRunPreservesDeterministicOrderByDefIndex(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(bannedSuffixesRule{})

	c1 := testClass("com.acme", "AImpl")
	c2 := testClass("com.acme", "BImpl")
	idx := buildTestIndex([]facts.ClassFact{c1, c2}, nil, nil, nil)
	ctx := evalCtx(idx, noRoles(t))
	defs := []policy.RuleDef{
		{Type: "naming", Name: "bannedSuffixes", Severity: "error", Params: map[string]any{"banned": []any{"Impl"}}},
	}

	for i := 0; i < 5; i++ {
		findings, _ := Run(reg, ctx, defs)
		if len(findings) != 2 {
			t.Fatalf("run %d: expected 2 findings, got %d", i, len(findings))
		}
	}
}

package rules

import (
	"golang.org/x/sync/errgroup"

	"shamash/internal/policy"
)

// Run evaluates every configured rule against ctx, catching any rule-level
// failure as an EngineError (phase "rule:crash") instead of aborting the
// run (spec.md §4.6). Rules may run in parallel across (rule, ...) pairs
// since the fact index is read-only after freeze (spec.md §5); findings and
// errors are collected per rule and flattened afterward, so result order
// does not depend on goroutine scheduling.
func Run(reg *Registry, ctx EvalContext, defs []policy.RuleDef) ([]Finding, []EngineError) {
	type outcome struct {
		findings []Finding
		err      *EngineError
	}
	outcomes := make([]outcome, len(defs))

	var g errgroup.Group
	g.SetLimit(8)
	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			outcomes[i] = evalOne(reg, ctx, def)
			return nil
		})
	}
	_ = g.Wait()

	var findings []Finding
	var errs []EngineError
	for _, o := range outcomes {
		findings = append(findings, o.findings...)
		if o.err != nil {
			errs = append(errs, *o.err)
		}
	}
	return findings, errs
}

func evalOne(reg *Registry, ctx EvalContext, def policy.RuleDef) (result struct {
	findings []Finding
	err      *EngineError
}) {
	canonicalID := def.CanonicalID()
	rule, ok := reg.Get(canonicalID)
	if !ok {
		e := EngineError{RuleID: canonicalID, Phase: "rule:lookup", Message: "rule not registered"}
		result.err = &e
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e := newRuleCrashError(canonicalID, r)
			result.err = &e
			result.findings = nil
		}
	}()

	findings, err := rule.Evaluate(ctx, def)
	if err != nil {
		e := EngineError{RuleID: canonicalID, Phase: "rule:evaluate", Message: err.Error()}
		result.err = &e
		return
	}
	result.findings = findings
	return
}

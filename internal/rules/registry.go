package rules

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"shamash/internal/facts"
	"shamash/internal/pathutil"
	"shamash/internal/policy"
	"shamash/internal/roles"
)

// EvalContext bundles everything a rule needs to evaluate: the frozen fact
// index, the resolved role index, the analysis config, and GraphResults:
// the graph and SCCs the engine computes once per run for the analysis
// section's granularity/includeExternal combination. graph.* rules reuse
// GraphResults when their own parameters match that combination and build
// their own graph otherwise; no built-in rule reads Analysis.
type EvalContext struct {
	Index        *facts.Index
	Roles        *roles.Index
	Analysis     policy.AnalysisConfig
	GraphResults *GraphResults
}

// Rule is the capability interface every built-in and extension rule
// implements (spec.md §4.6: "each rule exposes only evaluate(...)").
type Rule interface {
	ID() string
	Evaluate(ctx EvalContext, def policy.RuleDef) ([]Finding, error)
}

// Registry maps canonical rule ids to implementations, mirroring the
// teacher's thread-safe internal/tools.Registry (Register/MustRegister/Get).
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

func (r *Registry) Register(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.ID()]; exists {
		return fmt.Errorf("rule %q already registered", rule.ID())
	}
	r.rules[rule.ID()] = rule
	return nil
}

func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var global = NewRegistry()

func init() { RegisterBuiltins(global) }

// Global returns the process-wide default registry, pre-populated with the
// built-in rule set (spec.md §5: "process-wide caches").
func Global() *Registry { return global }

// inScope applies the engine-wrapper scope filter (spec.md §4.6): a rule
// runs against a class iff the rule's own roles list (if set) contains the
// class's role, and the rule's scope include/exclude roles, packages, and
// globs all admit it.
func inScope(ctx EvalContext, def policy.RuleDef, c facts.ClassFact) bool {
	roleID, hasRole := ctx.Roles.Resolve(c)

	if len(def.Roles) > 0 {
		if !hasRole || !contains(def.Roles, roleID) {
			return false
		}
	}
	scope := def.Scope
	if len(scope.IncludeRoles) > 0 && (!hasRole || !contains(scope.IncludeRoles, roleID)) {
		return false
	}
	if hasRole && contains(scope.ExcludeRoles, roleID) {
		return false
	}
	if len(scope.IncludePackages) > 0 && !matchesAny(scope.IncludePackages, c.Package) {
		return false
	}
	if matchesAny(scope.ExcludePackages, c.Package) {
		return false
	}
	if len(scope.IncludeGlobs) > 0 && !pathutil.MatchAny(scope.IncludeGlobs, c.Location.OriginPath) {
		return false
	}
	if pathutil.MatchAny(scope.ExcludeGlobs, c.Location.OriginPath) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil && re.MatchString(s) {
			return true
		}
	}
	return false
}

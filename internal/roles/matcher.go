// Package roles compiles the matcher grammar (spec.md §4.5) and resolves
// at most one architectural role per class, memoizing results the way the
// fact index is built once and read many times (spec.md §5: "process-wide
// caches ... compiled matcher regexes").
package roles

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"shamash/internal/facts"
)

// Matcher evaluates a compiled matcher expression against one class fact.
type Matcher interface {
	Eval(c facts.ClassFact) bool
}

// Compile turns a raw matcher parameter tree (as parsed from YAML/JSON) into
// a compiled Matcher, pre-compiling every regex leaf exactly once. The
// shape is a tagged sum type: each map has exactly one recognized key.
func Compile(def map[string]any) (Matcher, error) {
	if len(def) != 1 {
		return nil, fmt.Errorf("matcher: expected exactly one key, got %d", len(def))
	}
	for key, val := range def {
		switch key {
		case "anyOf":
			return compileCombinator(val, true)
		case "allOf":
			return compileCombinator(val, false)
		case "not":
			inner, err := compileOne(val)
			if err != nil {
				return nil, fmt.Errorf("matcher.not: %w", err)
			}
			return notMatcher{inner}, nil
		case "packageRegex":
			return compileRegexLeaf(key, val, func(re *regexp.Regexp) Matcher {
				return packageRegexMatcher{re}
			})
		case "packageContainsSegment":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("matcher.packageContainsSegment: expected string")
			}
			return packageContainsSegmentMatcher{segment: s}, nil
		case "classNameRegex":
			return compileRegexLeaf(key, val, func(re *regexp.Regexp) Matcher {
				return classNameRegexMatcher{re}
			})
		case "classNameEndsWith":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("matcher.classNameEndsWith: expected string")
			}
			return classNameEndsWithMatcher{suffix: s}, nil
		case "classNameEndsWithAny":
			suffixes, err := toStringList(val)
			if err != nil {
				return nil, fmt.Errorf("matcher.classNameEndsWithAny: %w", err)
			}
			return classNameEndsWithAnyMatcher{suffixes: suffixes}, nil
		case "annotation":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("matcher.annotation: expected string")
			}
			return annotationMatcher{fqn: s}, nil
		case "annotationPrefix":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("matcher.annotationPrefix: expected string")
			}
			return annotationPrefixMatcher{prefix: s}, nil
		case "implements":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("matcher.implements: expected string")
			}
			return implementsMatcher{fqn: s}, nil
		case "extends":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("matcher.extends: expected string")
			}
			return extendsMatcher{fqn: s}, nil
		case "hasMainMethod":
			b, ok := val.(bool)
			if !ok {
				return nil, fmt.Errorf("matcher.hasMainMethod: expected bool")
			}
			return hasMainMethodMatcher{want: b}, nil
		default:
			return nil, fmt.Errorf("matcher: unknown key %q", key)
		}
	}
	panic("unreachable")
}

func compileOne(val any) (Matcher, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a matcher object, got %T", val)
	}
	return Compile(m)
}

func compileCombinator(val any, isAny bool) (Matcher, error) {
	raw, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of matchers, got %T", val)
	}
	children := make([]Matcher, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d: expected a matcher object, got %T", i, item)
		}
		compiled, err := Compile(m)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		children = append(children, compiled)
	}
	if isAny {
		return anyOfMatcher{children: children}, nil
	}
	return allOfMatcher{children: children}, nil
}

func compileRegexLeaf(key string, val any, build func(*regexp.Regexp) Matcher) (Matcher, error) {
	s, ok := val.(string)
	if !ok {
		return nil, fmt.Errorf("matcher.%s: expected string", key)
	}
	re, err := regexp.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("matcher.%s: invalid regex: %w", key, err)
	}
	return build(re), nil
}

func toStringList(val any) ([]string, error) {
	raw, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of strings, got %T", val)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string list element, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

type anyOfMatcher struct{ children []Matcher }

func (m anyOfMatcher) Eval(c facts.ClassFact) bool {
	for _, child := range m.children {
		if child.Eval(c) {
			return true
		}
	}
	return false
}

type allOfMatcher struct{ children []Matcher }

func (m allOfMatcher) Eval(c facts.ClassFact) bool {
	for _, child := range m.children {
		if !child.Eval(c) {
			return false
		}
	}
	return true
}

type notMatcher struct{ inner Matcher }

func (m notMatcher) Eval(c facts.ClassFact) bool { return !m.inner.Eval(c) }

type packageRegexMatcher struct{ re *regexp.Regexp }

func (m packageRegexMatcher) Eval(c facts.ClassFact) bool { return m.re.MatchString(c.Package) }

// packageContainsSegmentMatcher matches whole dot-delimited segments only
// (spec.md §4.5: "service" matches "a.service.b" but not "a.serviceimpl").
type packageContainsSegmentMatcher struct{ segment string }

func (m packageContainsSegmentMatcher) Eval(c facts.ClassFact) bool {
	for _, seg := range strings.Split(c.Package, ".") {
		if seg == m.segment {
			return true
		}
	}
	return false
}

type classNameRegexMatcher struct{ re *regexp.Regexp }

func (m classNameRegexMatcher) Eval(c facts.ClassFact) bool { return m.re.MatchString(c.Type.FQN) }

type classNameEndsWithMatcher struct{ suffix string }

func (m classNameEndsWithMatcher) Eval(c facts.ClassFact) bool {
	return strings.HasSuffix(c.SimpleName, m.suffix)
}

type classNameEndsWithAnyMatcher struct{ suffixes []string }

func (m classNameEndsWithAnyMatcher) Eval(c facts.ClassFact) bool {
	for _, s := range m.suffixes {
		if strings.HasSuffix(c.SimpleName, s) {
			return true
		}
	}
	return false
}

type annotationMatcher struct{ fqn string }

func (m annotationMatcher) Eval(c facts.ClassFact) bool {
	for _, a := range c.Annotations {
		if a == m.fqn {
			return true
		}
	}
	return false
}

type annotationPrefixMatcher struct{ prefix string }

func (m annotationPrefixMatcher) Eval(c facts.ClassFact) bool {
	for _, a := range c.Annotations {
		if strings.HasPrefix(a, m.prefix) {
			return true
		}
	}
	return false
}

type implementsMatcher struct{ fqn string }

func (m implementsMatcher) Eval(c facts.ClassFact) bool {
	for _, iface := range c.Interfaces {
		if iface.FQN == m.fqn {
			return true
		}
	}
	return false
}

type extendsMatcher struct{ fqn string }

func (m extendsMatcher) Eval(c facts.ClassFact) bool {
	return c.Super != nil && c.Super.FQN == m.fqn
}

type hasMainMethodMatcher struct{ want bool }

func (m hasMainMethodMatcher) Eval(c facts.ClassFact) bool { return c.HasMainMethod == m.want }

// compiledCache memoizes Compile by a stable serialization of the matcher
// definition, so a role's matcher is compiled once regardless of how many
// times the policy document is reloaded with identical content.
var (
	cacheMu sync.Mutex
	cache   = make(map[string]Matcher)
)

func compileCached(key string, def map[string]any) (Matcher, error) {
	cacheMu.Lock()
	if m, ok := cache[key]; ok {
		cacheMu.Unlock()
		return m, nil
	}
	cacheMu.Unlock()

	m, err := Compile(def)
	if err != nil {
		return nil, err
	}
	cacheMu.Lock()
	cache[key] = m
	cacheMu.Unlock()
	return m, nil
}

// Package schema runs purely structural validation of a decoded policy
// document against the embedded JSON Schema for schema version 1
// (spec.md §4.2). It catches wrong types, missing required keys, unknown
// top-level keys, and bad enum values before the semantic validator
// (internal/semval) and the per-rule validators (internal/rulespec) ever
// see the document. Grounded on the library the pack's bearer/minder
// manifests reach for when they need structural JSON validation rather
// than hand-rolled type assertions.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed policy.schema.json
var policySchemaJSON []byte

const policySchemaURL = "shamash://policy/v1"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func policySchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var doc any
		if err := json.Unmarshal(policySchemaJSON, &doc); err != nil {
			compileErr = fmt.Errorf("parse embedded policy schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(policySchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("load embedded policy schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(policySchemaURL)
	})
	return compiled, compileErr
}

// Violation is one structural validation failure. Path is already
// converted from the schema's JSON-pointer instance location to the
// engine's dotted/bracketed diagnostic convention.
type Violation struct {
	Path    string
	Message string
}

// Validate runs instance (a generic value tree of map[string]any,
// []any, string, float64/int, bool, nil — exactly what gopkg.in/yaml.v3
// produces when unmarshaling into `any`) against the embedded policy
// schema. A nil, empty return means the document is structurally valid;
// rule-parameter shapes are deliberately out of scope here.
func Validate(instance any) ([]Violation, error) {
	s, err := policySchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(instance); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return []Violation{{Message: err.Error()}}, nil
		}
		return flatten(ve), nil
	}
	return nil, nil
}

// flatten walks a validation error tree down to its leaves: a failure with
// causes is a container node (e.g. "properties" or "allOf" failed because
// one of its children did); only leaves carry an actionable message.
func flatten(ve *jsonschema.ValidationError) []Violation {
	var out []Violation
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			out = append(out, Violation{
				Path:    pointerToPath(v.InstanceLocation),
				Message: v.Error(),
			})
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}

// pointerToPath converts a JSON-pointer instance location (a slice of
// unescaped reference tokens) into the engine's "a.b[2].c" diagnostic form.
func pointerToPath(tokens []string) string {
	if len(tokens) == 0 {
		return "<root>"
	}
	var b strings.Builder
	for _, t := range tokens {
		if isArrayIndex(t) {
			b.WriteString("[")
			b.WriteString(t)
			b.WriteString("]")
			continue
		}
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(t)
	}
	return b.String()
}

func isArrayIndex(t string) bool {
	if t == "" {
		return false
	}
	for _, c := range t {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

package schema

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func decode(t *testing.T, doc string) any {
	t.Helper()
	var v any
	if err := yaml.Unmarshal([]byte(doc), &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestValidateAcceptsMinimalDocument(t *testing.T) {
	v := decode(t, `version: 1`)
	violations, err := Validate(v)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}

func TestValidateRejectsUnknownTopLevelKey(t *testing.T) {
	v := decode(t, "version: 1\nbogus: true\n")
	violations, err := Validate(v)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) == 0 {
		t.Fatal("expected a violation for the unknown top-level key")
	}
}

func TestValidateRejectsBadScanScope(t *testing.T) {
	v := decode(t, "version: 1\nproject:\n  scanScope: everything\n")
	violations, err := Validate(v)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) == 0 {
		t.Fatal("expected a violation for the invalid scanScope enum value")
	}
	found := false
	for _, vi := range violations {
		if vi.Path == "project.scanScope" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a violation path of project.scanScope, got %+v", violations)
	}
}

func TestValidateRejectsMissingRuleType(t *testing.T) {
	v := decode(t, "version: 1\nrules:\n  - name: bannedSuffixes\n")
	violations, err := Validate(v)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) == 0 {
		t.Fatal("expected a violation for the missing required rule.type")
	}
}

func TestValidateAcceptsFullDocument(t *testing.T) {
	v := decode(t, `
version: 1
project:
  bytecodeRoots: ["build/classes"]
  scanScope: project-only
roles:
  - id: service
    priority: 10
    matcher: { classNameEndsWith: "Service" }
rules:
  - type: naming
    name: bannedSuffixes
    severity: ERROR
    scope:
      includeRoles: ["service"]
    params:
      suffixes: ["Impl"]
baseline:
  mode: USE
export:
  formats: ["json", "sarif"]
`)
	violations, err := Validate(v)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}

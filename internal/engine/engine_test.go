package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"shamash/internal/policy"
)

func writePolicy(t *testing.T, dir string, doc *policy.Document) string {
	t.Helper()
	path := filepath.Join(dir, "shamash.yml")
	if err := doc.Save(path); err != nil {
		t.Fatalf("saving policy: %v", err)
	}
	return path
}

func TestRunMissingPolicyFileUsesDefaultsAndFindsNoClasses(t *testing.T) {
	root := t.TempDir()
	result, err := Run(context.Background(), root, filepath.Join(root, "absent.yml"), time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success, got errors: %+v", result.Errors)
	}
	if result.Summary.TotalFindings != 0 || result.Summary.ClassesTotal != 0 {
		t.Fatalf("expected an empty project to produce zero findings and zero classes, got %+v", result.Summary)
	}
	if result.Export == nil || len(result.Export.Reports["json"]) == 0 {
		t.Fatal("expected a default json report to be rendered")
	}
}

func TestRunEmptyBytecodeRootProducesZeroFindings(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "classes")
	if err := os.MkdirAll(classDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	doc := policy.Default()
	doc.Project.BytecodeRoots = []string{classDir}
	policyPath := writePolicy(t, root, doc)

	result, err := Run(context.Background(), root, policyPath, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success, got errors: %+v", result.Errors)
	}
	if result.Facts == nil || len(result.Facts.Classes) != 0 {
		t.Fatalf("expected zero classes, got %+v", result.Facts)
	}
	if result.Summary.TotalFindings != 0 {
		t.Fatalf("expected zero findings, got %d", result.Summary.TotalFindings)
	}
}

func TestRunMalformedClassIsCapturedAsEngineErrorNotAbort(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "classes")
	if err := os.MkdirAll(classDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(classDir, "Bad.class"), []byte("not a real class file"), 0644); err != nil {
		t.Fatalf("write bad class: %v", err)
	}
	doc := policy.Default()
	doc.Project.BytecodeRoots = []string{classDir}
	policyPath := writePolicy(t, root, doc)

	result, err := Run(context.Background(), root, policyPath, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected the malformed class to surface as an engine error")
	}
	if result.IsSuccess() {
		t.Fatal("expected IsSuccess to be false when engine errors are present")
	}
	if len(result.Facts.Classes) != 0 {
		t.Fatalf("expected the malformed class to be skipped, got %d classes", len(result.Facts.Classes))
	}
}

func TestRunInvalidYAMLAbortsBeforeExtraction(t *testing.T) {
	root := t.TempDir()
	policyPath := filepath.Join(root, "shamash.yml")
	if err := os.WriteFile(policyPath, []byte("version: [this is not valid: yaml"), 0644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	result, err := Run(context.Background(), root, policyPath, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !hasBlockingError(result.Validation) {
		t.Fatalf("expected a blocking structural validation error, got %+v", result.Validation)
	}
	if result.Facts != nil {
		t.Fatal("expected extraction to be skipped after a structural validation error")
	}
	if !result.IsSuccess() {
		t.Fatal("a blocking validation error is not itself an engine error")
	}
}

func TestRunUnknownRuleIDRespectsUnknownRulePolicy(t *testing.T) {
	root := t.TempDir()
	doc := policy.Default()
	doc.Project.ValidationPolicy.UnknownRule = policy.UnknownRuleError
	doc.Rules = []policy.RuleDef{{Type: "naming", Name: "doesNotExist", Severity: "warning"}}
	policyPath := writePolicy(t, root, doc)

	result, err := Run(context.Background(), root, policyPath, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !hasBlockingError(result.Validation) {
		t.Fatalf("expected an unknown rule id to raise a blocking semantic validation error, got %+v", result.Validation)
	}
	if result.Facts != nil {
		t.Fatal("expected extraction to be skipped after a semantic validation error")
	}
}

func TestRunUnknownRuleIDIgnorePolicyProceeds(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "classes")
	if err := os.MkdirAll(classDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	doc := policy.Default()
	doc.Project.BytecodeRoots = []string{classDir}
	doc.Project.ValidationPolicy.UnknownRule = policy.UnknownRuleIgnore
	doc.Rules = []policy.RuleDef{{Type: "naming", Name: "doesNotExist", Severity: "warning"}}
	policyPath := writePolicy(t, root, doc)

	result, err := Run(context.Background(), root, policyPath, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if hasBlockingError(result.Validation) {
		t.Fatalf("expected IGNORE policy not to block the run, got %+v", result.Validation)
	}
	if result.Facts == nil {
		t.Fatal("expected extraction to proceed")
	}
}

func TestWriteExportWritesFixedFileNames(t *testing.T) {
	root := t.TempDir()
	doc := policy.Default()
	doc.Export.Formats = []string{"json", "sarif", "xml", "html"}
	doc.Export.Sidecars = policy.SidecarConfig{Facts: true, Roles: true, RulePlan: true}
	policyPath := writePolicy(t, root, doc)

	result, err := Run(context.Background(), root, policyPath, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	outDir := filepath.Join(root, doc.Export.OutputDir)
	if err := WriteExport(result.Export, outDir); err != nil {
		t.Fatalf("WriteExport: %v", err)
	}
	for _, name := range []string{
		"shamash-report.json", "shamash-report.sarif.json", "shamash-report.xml", "shamash-report.html",
		"facts.json", "roles.json", "rule-plan.json",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}
}

func TestValidateStructureMissingFileYieldsNoViolations(t *testing.T) {
	violations, err := validateStructure(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("validateStructure: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations for a missing file, got %+v", violations)
	}
}

func TestValidateStructureRejectsUnknownTopLevelKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shamash.yml")
	raw := map[string]any{"version": 1, "notARealKey": true}
	data, err := yaml.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	violations, err := validateStructure(path)
	if err != nil {
		t.Fatalf("validateStructure: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("expected an unknown top-level key to be rejected")
	}
}

func TestSummarizeCountsBySeverity(t *testing.T) {
	s := summarize(nil, 5)
	if s.TotalFindings != 0 || s.ClassesTotal != 5 {
		t.Fatalf("expected an empty findings summary to still report classesTotal, got %+v", s)
	}
}

// Package engine orchestrates one end-to-end run: locate and validate the
// policy, extract facts, assign roles, evaluate rules, run analysis,
// suppress via exceptions and baseline, and export the report (spec.md
// §4.11). It is the only package that wires every other component
// together; nothing downstream of it knows about the others.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"shamash/internal/baseline"
	"shamash/internal/exceptions"
	"shamash/internal/facts"
	"shamash/internal/graph"
	"shamash/internal/logging"
	"shamash/internal/policy"
	"shamash/internal/report"
	"shamash/internal/roles"
	"shamash/internal/rules"
	"shamash/internal/rulespec"
	"shamash/internal/schema"
	"shamash/internal/semval"
)

// ValidationError is the structured record for a schema or semantic
// validation failure (spec.md §7). Accumulated, non-blocking for
// warnings; an ERROR-severity entry aborts the run before extraction.
type ValidationError struct {
	Path     string
	Message  string
	Severity string // ERROR|WARNING
}

// Summary counts findings in total and by severity, plus the number of
// classes scanned, the dashboard-facing digest of a run.
type Summary struct {
	TotalFindings int
	BySeverity    map[string]int
	ClassesTotal  int
}

// Export bundles the rendered report bytes per format, keyed by format
// name, plus any sidecar artifacts that were requested.
type Export struct {
	Reports  map[string][]byte // "json" | "sarif" | "xml" | "html"
	Sidecars map[string][]byte
}

// EngineResult is the orchestrator's sole output (spec.md §4.11).
// IsSuccess iff there are no engine errors — findings are expected, not
// failures.
type EngineResult struct {
	RunID      string
	Summary    Summary
	Findings   []rules.Finding
	Validation []ValidationError
	Errors     []rules.EngineError
	Export     *Export
	Facts      *facts.Index
}

// IsSuccess reports whether the run completed with no engine errors.
func (r EngineResult) IsSuccess() bool {
	return len(r.Errors) == 0
}

// Run drives the full pipeline against the policy document at policyPath,
// relative to projectRoot. now stamps the report's generation timestamp
// and the baseline exception-expiry check.
func Run(ctx context.Context, projectRoot, policyPath string, now time.Time) (EngineResult, error) {
	log := logging.Get(logging.CategoryEngine)
	runID := uuid.NewString()

	structural, err := validateStructure(policyPath)
	if err != nil {
		return EngineResult{}, err
	}
	result := EngineResult{RunID: runID, Validation: structural}
	if hasBlockingError(structural) {
		log.Error("structural validation failed, aborting before extraction")
		return result, nil
	}

	doc, err := policy.Load(policyPath)
	if err != nil {
		return EngineResult{}, fmt.Errorf("loading policy: %w", err)
	}

	semantic := semanticValidationErrors(semval.Validate(doc, rulespec.Global()))
	result.Validation = append(result.Validation, semantic...)
	if hasBlockingError(semantic) {
		log.Error("semantic validation failed, aborting before extraction")
		return result, nil
	}

	origins, err := facts.Discover(ctx, doc.Project)
	if err != nil {
		return result, fmt.Errorf("discovering bytecode origins: %w", err)
	}

	index, factErrs, err := facts.ExtractAll(ctx, origins, doc.Project.Limits)
	if err != nil {
		result.Errors = append(result.Errors, rules.EngineError{Phase: "extract:limit", Message: err.Error()})
		return result, nil
	}
	for _, fe := range factErrs {
		result.Errors = append(result.Errors, rules.EngineError{Phase: fe.Phase, Message: fe.Message, ThrowableClass: fe.ThrowableClass})
	}
	result.Facts = index

	roleIdx, err := roles.Compile(doc.Roles)
	if err != nil {
		return result, fmt.Errorf("compiling roles: %w", err)
	}

	var graphResults *rules.GraphResults
	if doc.Analysis.Enabled {
		granularity := parseGranularity(doc.Analysis.Granularity)
		g := graph.Build(index, granularity, doc.Analysis.IncludeExternal)
		graphResults = rules.BuildGraphResults(g, granularity, doc.Analysis.IncludeExternal)
	}

	evalCtx := rules.EvalContext{Index: index, Roles: roleIdx, Analysis: doc.Analysis, GraphResults: graphResults}
	findings, engineErrs := rules.Run(rules.Global(), evalCtx, doc.Rules)
	result.Errors = append(result.Errors, engineErrs...)

	compiledExceptions, err := exceptions.Compile(doc.Exceptions, now)
	if err != nil {
		return result, fmt.Errorf("compiling exceptions: %w", err)
	}
	for _, w := range exceptions.ValidationWarnings(compiledExceptions) {
		result.Validation = append(result.Validation, ValidationError{
			Path:     "exceptions",
			Message:  fmt.Sprintf("exception expired on %s (suppress=%v)", w.ExpiresOn, w.RuleIDs),
			Severity: "WARNING",
		})
	}
	findings = exceptions.Apply(findings, compiledExceptions)

	baselinePath := filepath.Join(projectRoot, doc.Export.OutputDir, "baseline.json")
	findings, err = baseline.Process(findings, doc.Baseline, baselinePath)
	if err != nil {
		return result, fmt.Errorf("processing baseline: %w", err)
	}

	result.Findings = findings
	result.Summary = summarize(findings, len(index.Classes))

	built := report.Build(findings, projectRoot, now)
	built.RunID = runID
	export, err := buildExport(built, doc, index, roleIdx, graphResults)
	if err != nil {
		result.Errors = append(result.Errors, rules.EngineError{Phase: "export", Message: err.Error()})
		return result, nil
	}
	result.Export = export

	return result, nil
}

func validateStructure(policyPath string) ([]ValidationError, error) {
	data, err := os.ReadFile(policyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading policy: %w", err)
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []ValidationError{{Path: "", Message: err.Error(), Severity: "ERROR"}}, nil
	}
	violations, err := schema.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	out := make([]ValidationError, 0, len(violations))
	for _, v := range violations {
		out = append(out, ValidationError{Path: v.Path, Message: v.Message, Severity: "ERROR"})
	}
	return out, nil
}

func semanticValidationErrors(violations []semval.Violation) []ValidationError {
	out := make([]ValidationError, 0, len(violations))
	for _, v := range violations {
		out = append(out, ValidationError{Path: v.Path, Message: v.Message, Severity: string(v.Severity)})
	}
	return out
}

func hasBlockingError(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "ERROR" {
			return true
		}
	}
	return false
}

func summarize(findings []rules.Finding, classesTotal int) Summary {
	bySeverity := map[string]int{}
	for _, f := range findings {
		bySeverity[string(f.Severity)]++
	}
	return Summary{TotalFindings: len(findings), BySeverity: bySeverity, ClassesTotal: classesTotal}
}

func parseGranularity(s string) graph.Granularity {
	switch s {
	case "package":
		return graph.GranularityPackage
	case "module":
		return graph.GranularityModule
	default:
		return graph.GranularityClass
	}
}

// Package policy defines the typed representation of the policy document
// (spec.md §3, §6) and loads it from a YAML file: yaml.Unmarshal into a
// struct seeded with defaults, then environment-variable overrides.
package policy

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"shamash/internal/logging"
)

// ScanScope controls which bytecode roots and buckets origin discovery
// admits (spec.md §4.4).
type ScanScope string

const (
	ScopeProjectOnly                ScanScope = "project-only"
	ScopeProjectWithExternalBuckets ScanScope = "project-with-external-buckets"
	ScopeAllSources                 ScanScope = "all-sources"
)

// UnknownRulePolicy controls how the semantic validator reacts to a
// configured rule id that the registry does not know (spec.md §4.3).
type UnknownRulePolicy string

const (
	UnknownRuleError  UnknownRulePolicy = "ERROR"
	UnknownRuleWarn   UnknownRulePolicy = "WARN"
	UnknownRuleIgnore UnknownRulePolicy = "IGNORE"
)

// ScanLimits bounds extraction so a pathological input aborts with a typed
// error instead of exhausting memory (spec.md §4.4).
type ScanLimits struct {
	MaxClasses      int   `yaml:"maxClasses"`
	MaxArchiveBytes int64 `yaml:"maxArchiveBytes"`
	MaxClassBytes   int64 `yaml:"maxClassBytes"`
}

// ValidationPolicy controls how unconfigured rule references are treated.
type ValidationPolicy struct {
	UnknownRule UnknownRulePolicy `yaml:"unknownRule"`
}

// ProjectConfig describes where to find bytecode and how to scope the scan.
type ProjectConfig struct {
	BytecodeRoots    []string         `yaml:"bytecodeRoots"`
	IncludeGlobs     []string         `yaml:"includeGlobs"`
	ExcludeGlobs     []string         `yaml:"excludeGlobs"`
	ArchiveGlobs     []string         `yaml:"archiveGlobs"`
	ScanScope        ScanScope        `yaml:"scanScope"`
	Limits           ScanLimits       `yaml:"limits"`
	FollowSymlinks   bool             `yaml:"followSymlinks"`
	ValidationPolicy ValidationPolicy `yaml:"validationPolicy"`
}

// RoleDef is one entry in the ordered (by priority desc) role list
// (spec.md §4.5). Matcher is kept as a raw parameter tree here; the roles
// package compiles it.
type RoleDef struct {
	ID       string         `yaml:"id"`
	Priority int            `yaml:"priority"`
	Matcher  map[string]any `yaml:"matcher"`
}

// ScoringConfig configures the weighted god-class/package composite scores
// (spec.md §4.7).
type ScoringConfig struct {
	Weights    map[string]float64 `yaml:"weights"`
	Warning    float64            `yaml:"warning"`
	Error      float64            `yaml:"error"`
}

// AnalysisConfig toggles and configures graph/hotspot/scoring analysis
// (spec.md §4.7).
type AnalysisConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Granularity        string        `yaml:"granularity"` // class|package|module
	IncludeExternal    bool          `yaml:"includeExternal"`
	MaxCyclePathLength int           `yaml:"maxCyclePathLength"`
	HotspotTopN        int           `yaml:"hotspotTopN"`
	Scoring            ScoringConfig `yaml:"scoring"`
}

// ScopeDef narrows which classes a rule runs against (spec.md §4.6).
type ScopeDef struct {
	IncludeRoles    []string `yaml:"includeRoles"`
	ExcludeRoles    []string `yaml:"excludeRoles"`
	IncludePackages []string `yaml:"includePackages"`
	ExcludePackages []string `yaml:"excludePackages"`
	IncludeGlobs    []string `yaml:"includeGlobs"`
	ExcludeGlobs    []string `yaml:"excludeGlobs"`
}

// RuleDef configures one rule instance. ID is canonicalized to
// "<type>.<name>" by CanonicalID.
type RuleDef struct {
	Type     string         `yaml:"type"`
	Name     string         `yaml:"name"`
	Severity string         `yaml:"severity"`
	Roles    []string       `yaml:"roles"`
	Scope    ScopeDef       `yaml:"scope"`
	Params   map[string]any `yaml:"params"`
}

// CanonicalID returns the rule's "<type>.<name>" identity.
func (r RuleDef) CanonicalID() string {
	return r.Type + "." + r.Name
}

// MatchDef is the set of selectors an exception can combine (spec.md §4.8).
// A finding is suppressed only if every declared (non-zero) selector
// matches.
type MatchDef struct {
	RuleID            string   `yaml:"ruleId"`
	RuleType          string   `yaml:"ruleType"`
	RuleName          string   `yaml:"ruleName"`
	Roles             []string `yaml:"roles"`
	ClassInternalName string   `yaml:"classInternalName"`
	ClassNameRegex    string   `yaml:"classNameRegex"`
	PackageRegex      string   `yaml:"packageRegex"`
	OriginPathRegex   string   `yaml:"originPathRegex"`
	FileGlob          string   `yaml:"fileGlob"`
}

// ExceptionDef suppresses matching findings, optionally limited to specific
// rule ids.
type ExceptionDef struct {
	ExpiresOn string   `yaml:"expiresOn"` // RFC3339 date, optional
	Match     MatchDef `yaml:"match"`
	Suppress  []string `yaml:"suppress"`
}

// BaselineMode selects the baseline pipeline stage's behavior (spec.md §4.9).
type BaselineMode string

const (
	BaselineNone     BaselineMode = "NONE"
	BaselineGenerate BaselineMode = "GENERATE"
	BaselineUse      BaselineMode = "USE"
)

// BaselineConfig configures the baseline stage.
type BaselineConfig struct {
	Mode  BaselineMode `yaml:"mode"`
	Merge bool         `yaml:"merge"` // GENERATE only: union with existing baseline
}

// SidecarConfig toggles optional export artifacts (spec.md §4.10).
type SidecarConfig struct {
	Facts            bool `yaml:"facts"`
	FactsGzip        bool `yaml:"factsGzip"`
	Roles            bool `yaml:"roles"`
	RulePlan         bool `yaml:"rulePlan"`
	AnalysisGraphs   bool `yaml:"analysisGraphs"`
	AnalysisHotspots bool `yaml:"analysisHotspots"`
	AnalysisScores   bool `yaml:"analysisScores"`
}

// ExportConfig configures the output directory, report formats, and gate.
type ExportConfig struct {
	OutputDir string        `yaml:"outputDir"`
	Formats   []string      `yaml:"formats"` // json|sarif|xml|html
	Sidecars  SidecarConfig `yaml:"sidecars"`
	FailOn    string        `yaml:"failOn"` // error|warning|info|none
}

// LoggingConfig configures the ambient logging package.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// Document is the typed top-level policy document (spec.md §3, §6).
type Document struct {
	Version    int             `yaml:"version"`
	Project    ProjectConfig   `yaml:"project"`
	Roles      []RoleDef       `yaml:"roles"`
	Analysis   AnalysisConfig  `yaml:"analysis"`
	Rules      []RuleDef       `yaml:"rules"`
	Exceptions []ExceptionDef  `yaml:"exceptions"`
	Baseline   BaselineConfig  `yaml:"baseline"`
	Export     ExportConfig    `yaml:"export"`
	Logging    LoggingConfig   `yaml:"logging"`
}

// Default returns the built-in default policy document.
func Default() *Document {
	return &Document{
		Version: 1,
		Project: ProjectConfig{
			IncludeGlobs: []string{"**/*.class"},
			ScanScope:    ScopeProjectOnly,
			Limits: ScanLimits{
				MaxClasses:      200000,
				MaxArchiveBytes: 512 * 1024 * 1024,
				MaxClassBytes:   16 * 1024 * 1024,
			},
			ValidationPolicy: ValidationPolicy{UnknownRule: UnknownRuleError},
		},
		Analysis: AnalysisConfig{
			Enabled:            true,
			Granularity:        "class",
			MaxCyclePathLength: 25,
			HotspotTopN:        10,
			Scoring: ScoringConfig{
				Weights: map[string]float64{
					"fanIn": 0.25, "fanOut": 0.25, "packageSpread": 0.25, "methodCount": 0.25,
				},
				Warning: 0.5,
				Error:   0.8,
			},
		},
		Baseline: BaselineConfig{Mode: BaselineNone},
		Export: ExportConfig{
			OutputDir: ".shamash",
			Formats:   []string{"json"},
			FailOn:    "error",
		},
		Logging: LoggingConfig{Enabled: false, Level: "info", Format: "text"},
	}
}

// Load reads and parses a policy document from path, applying defaults for
// anything left unset and then environment overrides. A missing file is not
// an error: it yields the default document with env overrides applied.
func Load(path string) (*Document, error) {
	doc := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Get(logging.CategoryConfig).Info("policy file not found, using defaults: %s", path)
			applyEnvOverrides(doc)
			return doc, nil
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}

	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	applyEnvOverrides(doc)
	return doc, nil
}

// Save writes doc as YAML to path, creating parent directories as needed.
func (d *Document) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create policy directory: %w", err)
		}
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func applyEnvOverrides(d *Document) {
	if v := os.Getenv("SHAMASH_OUTPUT_DIR"); v != "" {
		d.Export.OutputDir = v
	}
	if v := os.Getenv("SHAMASH_BASELINE_MODE"); v != "" {
		d.Baseline.Mode = BaselineMode(v)
	}
	if v := os.Getenv("SHAMASH_LOG_LEVEL"); v != "" {
		d.Logging.Level = v
	}
	if v := os.Getenv("SHAMASH_FAIL_ON"); v != "" {
		d.Export.FailOn = v
	}
}

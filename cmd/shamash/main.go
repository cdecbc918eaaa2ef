// Package main implements the shamash CLI: a thin cobra shell around the
// internal/engine orchestrator. It is deliberately minimal — the engine
// package is the real deliverable and is fully usable as a library without
// this binary.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shamash/internal/engine"
	"shamash/internal/logging"
	"shamash/internal/policy"
	"shamash/internal/report"
)

var (
	projectDir string
	policyFile string
	verbose    bool

	zlog *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shamash",
	Short: "JVM-bytecode architecture governance engine",
	Long: `shamash extracts architectural facts from compiled class files,
assigns roles, evaluates pluggable rules, and exports a multi-format
governance report.

Run "shamash scan" to evaluate a project against its policy.`,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Extract facts, evaluate rules, and export a report for one project",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Project root directory")
	scanCmd.Flags().StringVar(&policyFile, "policy", "shamash.yml", "Path to the policy document (relative to --project unless absolute)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug-level) CLI logging")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	var err error
	zlog, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer zlog.Sync()

	root, err := filepath.Abs(projectDir)
	if err != nil {
		os.Exit(2)
	}
	policyPath := policyFile
	if !filepath.IsAbs(policyPath) {
		policyPath = filepath.Join(root, policyPath)
	}

	doc, err := policy.Load(policyPath)
	if err != nil {
		zlog.Error("failed to load policy", zap.Error(err))
		os.Exit(2)
	}
	if err := logging.Initialize(logging.Config{
		Enabled: doc.Logging.Enabled,
		Level:   doc.Logging.Level,
		Format:  doc.Logging.Format,
		Dir:     filepath.Join(root, doc.Export.OutputDir, "logs"),
	}); err != nil {
		zlog.Warn("failed to initialize category file logging", zap.Error(err))
	}
	defer logging.Close()

	zlog.Info("starting scan", zap.String("project", root), zap.String("policy", policyPath))

	result, err := engine.Run(context.Background(), root, policyPath, time.Now())
	if err != nil {
		zlog.Error("engine run failed", zap.Error(err))
		os.Exit(2)
	}

	for _, v := range result.Validation {
		if v.Severity == "ERROR" {
			zlog.Error("validation error", zap.String("path", v.Path), zap.String("message", v.Message))
		} else {
			zlog.Warn("validation warning", zap.String("path", v.Path), zap.String("message", v.Message))
		}
	}
	if hasBlockingValidation(result.Validation) {
		fmt.Fprintln(os.Stderr, "configuration invalid, aborting before extraction")
		os.Exit(2)
	}

	if !result.IsSuccess() {
		for _, e := range result.Errors {
			zlog.Warn("engine error", zap.String("phase", e.Phase), zap.String("ruleId", e.RuleID), zap.String("message", e.Message))
		}
	}

	outDir := filepath.Join(root, doc.Export.OutputDir)
	if err := engine.WriteExport(result.Export, outDir); err != nil {
		zlog.Error("failed to write export", zap.Error(err))
		os.Exit(3)
	}

	fmt.Printf("shamash: %d finding(s) across %d class(es) (run %s)\n",
		result.Summary.TotalFindings, result.Summary.ClassesTotal, result.RunID)
	for _, sev := range []string{"error", "warning", "info"} {
		if n := result.Summary.BySeverity[sev]; n > 0 {
			fmt.Printf("  %-8s %d\n", sev, n)
		}
	}
	fmt.Printf("report written to %s\n", outDir)

	if !result.IsSuccess() {
		os.Exit(3)
	}

	built := report.Build(result.Findings, root, time.Now())
	if built.ExceedsGate(doc.Export) {
		os.Exit(1)
	}
	os.Exit(0)
	return nil
}

func hasBlockingValidation(validation []engine.ValidationError) bool {
	for _, v := range validation {
		if v.Severity == "ERROR" {
			return true
		}
	}
	return false
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

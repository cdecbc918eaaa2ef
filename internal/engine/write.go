package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

var reportFileNames = map[string]string{
	"json":  "shamash-report.json",
	"sarif": "shamash-report.sarif.json",
	"xml":   "shamash-report.xml",
	"html":  "shamash-report.html",
}

// WriteExport persists every rendered report and sidecar under
// outputDir, using the fixed names spec.md §6 documents.
func WriteExport(exp *Export, outputDir string) error {
	if exp == nil {
		return nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for format, data := range exp.Reports {
		name, ok := reportFileNames[format]
		if !ok {
			name = "shamash-report." + format
		}
		if err := os.WriteFile(filepath.Join(outputDir, name), data, 0644); err != nil {
			return fmt.Errorf("writing %s report: %w", format, err)
		}
	}
	for name, data := range exp.Sidecars {
		if err := os.WriteFile(filepath.Join(outputDir, name), data, 0644); err != nil {
			return fmt.Errorf("writing %s sidecar: %w", name, err)
		}
	}
	return nil
}

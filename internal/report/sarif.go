package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SARIF 2.1.0 structures, grounded on the goverhaul formatter's shape and
// extended with partialFingerprints and an invocation block per spec.md
// §4.10.
type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations"`
	Results     []sarifResult     `json:"results"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool   `json:"executionSuccessful"`
	StartTimeUTC        string `json:"startTimeUtc"`
	Guid                string `json:"guid,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri"`
	Version        string      `json:"version"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifMessage    `json:"shortDescription"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID              string              `json:"ruleId"`
	Level               string              `json:"level"`
	Message             sarifMessage        `json:"message"`
	Locations           []sarifLocation     `json:"locations"`
	PartialFingerprints sarifFingerprintSet `json:"partialFingerprints"`
}

type sarifFingerprintSet struct {
	PrimaryLocationLineHash string `json:"primaryLocationLineHash"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	CharOffset int `json:"charOffset"`
}

func sarifLevel(sev string) string {
	switch sev {
	case "error":
		return "error"
	case "warning":
		return "warning"
	default:
		return "note"
	}
}

// RenderSARIF emits a SARIF 2.1.0 document. The rule catalog is built from
// the distinct rule ids present in the report, in sorted order for
// determinism.
func RenderSARIF(r Report, toolVersion string) ([]byte, error) {
	ruleSeen := map[string]bool{}
	var ruleIDs []string
	results := make([]sarifResult, 0, len(r.Records))

	for _, rec := range r.Records {
		if !ruleSeen[rec.RuleID] {
			ruleSeen[rec.RuleID] = true
			ruleIDs = append(ruleIDs, rec.RuleID)
		}
		loc := sarifPhysicalLocation{ArtifactLocation: sarifArtifactLocation{URI: rec.FilePath}}
		if rec.StartOffset != nil {
			loc.Region = &sarifRegion{CharOffset: *rec.StartOffset}
		}
		results = append(results, sarifResult{
			RuleID:  rec.RuleID,
			Level:   sarifLevel(string(rec.Severity)),
			Message: sarifMessage{Text: rec.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: loc,
			}},
			PartialFingerprints: sarifFingerprintSet{PrimaryLocationLineHash: rec.Fingerprint},
		})
	}
	sort.Strings(ruleIDs)

	rules := make([]sarifRule, 0, len(ruleIDs))
	for _, id := range ruleIDs {
		rules = append(rules, sarifRule{
			ID:               id,
			Name:             id,
			ShortDescription: sarifMessage{Text: fmt.Sprintf("Architecture rule %s", id)},
			DefaultConfig:    sarifRuleConfig{Level: "error"},
		})
	}

	doc := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "shamash",
				InformationURI: "https://github.com/shamash-project/shamash",
				Version:        toolVersion,
				Rules:          rules,
			}},
			Invocations: []sarifInvocation{{
				ExecutionSuccessful: true,
				StartTimeUTC:        r.GeneratedAt.UTC().Format(time.RFC3339),
				Guid:                r.RunID,
			}},
			Results: results,
		}},
	}
	return json.MarshalIndent(doc, "", "  ")
}

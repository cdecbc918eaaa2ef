package report

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// xmlReport mirrors the Checkstyle-style shape grounded in the goverhaul
// formatter, generalized to shamash's own finding fields.
type xmlReport struct {
	XMLName     xml.Name    `xml:"shamash-report"`
	GeneratedAt string      `xml:"generatedAt,attr"`
	Files       []xmlFile   `xml:"file"`
}

type xmlFile struct {
	Path     string       `xml:"path,attr"`
	Findings []xmlFinding `xml:"finding"`
}

type xmlFinding struct {
	RuleID      string `xml:"ruleId,attr"`
	Severity    string `xml:"severity,attr"`
	Class       string `xml:"class,attr,omitempty"`
	Member      string `xml:"member,attr,omitempty"`
	Fingerprint string `xml:"fingerprint,attr"`
	Message     string `xml:",chardata"`
}

// RenderXML emits the report as XML, grouping findings by file path. Both
// attribute values and element text are escaped for & < > " ' via
// encoding/xml's own marshaling, matching spec.md §4.10.
func RenderXML(r Report) ([]byte, error) {
	var files []xmlFile
	var current *xmlFile
	for _, rec := range r.Records {
		if current == nil || current.Path != rec.FilePath {
			files = append(files, xmlFile{Path: rec.FilePath})
			current = &files[len(files)-1]
		}
		current.Findings = append(current.Findings, xmlFinding{
			RuleID:      rec.RuleID,
			Severity:    string(rec.Severity),
			Class:       rec.ClassFQN,
			Member:      rec.Member,
			Fingerprint: rec.Fingerprint,
			Message:     rec.Message,
		})
	}

	doc := xmlReport{GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339), Files: files}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding xml report: %w", err)
	}
	return buf.Bytes(), nil
}

package report

import (
	"bytes"
	"fmt"
	"html"
	"time"
)

// RenderHTML emits a self-contained HTML report table: one row per
// finding, HTML-escaped cells, a severity badge, and the class#member
// owner rendered as a single cell.
func RenderHTML(r Report) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>shamash report</title>")
	buf.WriteString("<style>")
	buf.WriteString("body{font-family:sans-serif}table{border-collapse:collapse;width:100%}")
	buf.WriteString("td,th{border:1px solid #ccc;padding:4px 8px;text-align:left}")
	buf.WriteString(".badge{padding:2px 6px;border-radius:3px;color:#fff}")
	buf.WriteString(".badge-error{background:#c0392b}.badge-warning{background:#d35400}.badge-info{background:#2980b9}")
	buf.WriteString("</style></head><body>")
	fmt.Fprintf(&buf, "<h1>shamash report</h1><p>generated %s &mdash; %d finding(s)</p>",
		html.EscapeString(r.GeneratedAt.UTC().Format(time.RFC3339)), len(r.Records))

	bySeverity := map[string]int{}
	for _, rec := range r.Records {
		bySeverity[string(rec.Severity)]++
	}
	buf.WriteString("<p>")
	for i, sev := range severityKeysSorted(bySeverity) {
		if i > 0 {
			buf.WriteString(" &middot; ")
		}
		fmt.Fprintf(&buf, "<span class=\"badge %s\">%s: %d</span>", badgeClass(sev), html.EscapeString(sev), bySeverity[sev])
	}
	buf.WriteString("</p>")

	buf.WriteString("<table><thead><tr><th>Severity</th><th>Rule</th><th>File</th><th>Owner</th><th>Message</th></tr></thead><tbody>")

	for _, rec := range r.Records {
		owner := rec.ClassFQN
		if rec.Member != "" {
			owner = owner + "#" + rec.Member
		}
		fmt.Fprintf(&buf, "<tr><td><span class=\"badge %s\">%s</span></td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			badgeClass(string(rec.Severity)),
			html.EscapeString(string(rec.Severity)),
			html.EscapeString(rec.RuleID),
			html.EscapeString(rec.FilePath),
			html.EscapeString(owner),
			html.EscapeString(rec.Message),
		)
	}
	buf.WriteString("</tbody></table></body></html>")
	return buf.Bytes(), nil
}

func badgeClass(sev string) string {
	switch sev {
	case "error":
		return "badge-error"
	case "warning":
		return "badge-warning"
	default:
		return "badge-info"
	}
}

package render

import (
	"encoding/base64"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"seqreport/internal/provenance"
	"seqreport/internal/report"
	"seqreport/pkg/reportapi"
)

const reportCSS = `body{font-family:ui-sans-serif,system-ui,sans-serif;margin:2rem;color:#222}` +
	`h1{border-bottom:2px solid #46b98a;padding-bottom:.3rem}` +
	`table{border-collapse:collapse;margin:1rem 0}` +
	`th,td{border:1px solid #ddd;padding:.3rem .6rem;text-align:left}` +
	`th{background:#f4f4f4}` +
	`td.num{text-align:right;font-variant-numeric:tabular-nums}` +
	`.col-hidden{display:none}` +
	`.run-meta dt{font-weight:bold}` +
	`.run-meta dd{margin:0 0 .4rem 0}` +
	`.status-success{color:#1a7f37}.status-skipped{color:#777}.status-error{color:#b42318}` +
	`.plot img{max-width:100%;border:1px solid #eee}` +
	`footer{margin-top:3rem;color:#999;font-size:.8rem}`

// buildHTML assembles the self-contained report page. Chart images are
// inlined as data URIs keyed by section anchor.
func buildHTML(rep *report.Report, images map[string][]byte) []byte {
	buf := &strings.Builder{}
	title := rep.Title
	if title == "" {
		title = "seqreport"
	}

	buf.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>")
	buf.WriteString(html.EscapeString(title))
	buf.WriteString("</title><style>")
	buf.WriteString(reportCSS)
	buf.WriteString("</style></head><body>")

	fmt.Fprintf(buf, "<h1>%s</h1>", html.EscapeString(title))
	buf.WriteString("<div class=\"run-meta\"><dl>")
	writeMeta(buf, "Run", rep.RunID)
	writeMeta(buf, "Started", rep.StartedAt.UTC().Format(time.RFC3339))
	writeMeta(buf, "Finished", rep.FinishedAt.UTC().Format(time.RFC3339))
	if len(rep.Roots) > 0 {
		writeMeta(buf, "Analysis dirs", strings.Join(rep.Roots, ", "))
	}
	writeMeta(buf, "Samples", strconv.Itoa(rep.SampleCount))
	buf.WriteString("</dl></div>")

	writeOutcomes(buf, rep.Outcomes)
	writeGeneralStats(buf, rep.General)
	for _, section := range rep.Sections {
		writeSection(buf, section, images[section.Anchor])
	}

	buf.WriteString("<footer>generated by seqreport</footer></body></html>")
	return []byte(buf.String())
}

func writeMeta(buf *strings.Builder, label, value string) {
	fmt.Fprintf(buf, "<dt>%s</dt><dd>%s</dd>", html.EscapeString(label), html.EscapeString(value))
}

func writeOutcomes(buf *strings.Builder, outcomes []provenance.ModuleOutcome) {
	if len(outcomes) == 0 {
		return
	}
	buf.WriteString("<h2 id=\"modules\">Modules</h2><table><thead><tr>" +
		"<th>Module</th><th>Status</th><th>Samples</th><th>Error</th></tr></thead><tbody>")
	for _, o := range outcomes {
		fmt.Fprintf(buf, "<tr><td>%s</td><td class=\"status-%s\">%s</td><td class=\"num\">%d</td><td>%s</td></tr>",
			html.EscapeString(o.Name), html.EscapeString(o.Status), html.EscapeString(o.Status),
			o.Samples, html.EscapeString(o.Error))
	}
	buf.WriteString("</tbody></table>")
}

func writeGeneralStats(buf *strings.Builder, g *report.GeneralStats) {
	if g == nil || g.Len() == 0 {
		return
	}
	columns := g.Columns()
	if len(columns) == 0 {
		return
	}

	buf.WriteString("<h2 id=\"general_stats\">General Statistics</h2><table><thead><tr><th>Sample</th>")
	for _, col := range columns {
		title := col.Title
		if title == "" {
			title = col.Metric
		}
		fmt.Fprintf(buf, "<th class=\"%s\" title=\"%s\">%s</th>",
			columnClasses(col), html.EscapeString(col.Description), html.EscapeString(title))
	}
	buf.WriteString("</tr></thead><tbody>")

	table := g.Table()
	for _, sample := range table.Names() {
		rec, _ := table.Get(sample)
		fmt.Fprintf(buf, "<tr><td>%s</td>", html.EscapeString(sample))
		for _, col := range columns {
			v, ok := rec[col.Metric]
			if !ok {
				fmt.Fprintf(buf, "<td class=\"%s\"></td>", columnClasses(col))
				continue
			}
			classes := columnClasses(col)
			if v.IsNumber() {
				classes = "num " + classes
			}
			fmt.Fprintf(buf, "<td class=\"%s\">%s</td>", strings.TrimSpace(classes), html.EscapeString(formatCell(v, col)))
		}
		buf.WriteString("</tr>")
	}
	buf.WriteString("</tbody></table>")
}

// columnClasses derives the CSS hooks for a summary column: visibility,
// color scale and the shared key that unifies scales across modules.
func columnClasses(col reportapi.ColumnSpec) string {
	var classes []string
	if col.Hidden {
		classes = append(classes, "col-hidden")
	}
	if col.Scale != "" {
		classes = append(classes, "scale-"+col.Scale)
	}
	if col.SharedKey != "" {
		classes = append(classes, "shared-"+col.SharedKey)
	}
	return strings.Join(classes, " ")
}

func formatCell(v reportapi.Value, col reportapi.ColumnSpec) string {
	text := v.String()
	if col.Format != "" {
		if f, ok := v.Float(); ok {
			text = fmt.Sprintf(col.Format, f)
		}
	}
	if col.Suffix != "" {
		text += col.Suffix
	}
	return text
}

func writeSection(buf *strings.Builder, s reportapi.Section, img []byte) {
	fmt.Fprintf(buf, "<section id=\"%s\"><h2>%s</h2>", html.EscapeString(s.Anchor), html.EscapeString(s.Name))
	if s.Description != "" {
		fmt.Fprintf(buf, "<p>%s</p>", html.EscapeString(s.Description))
	}
	if len(img) > 0 {
		alt := s.Name
		if s.Bar != nil && s.Bar.Title != "" {
			alt = s.Bar.Title
		}
		fmt.Fprintf(buf, "<div class=\"plot\"><img alt=\"%s\" src=\"data:image/png;base64,%s\"/></div>",
			html.EscapeString(alt), base64.StdEncoding.EncodeToString(img))
	}
	// Content is a module-supplied fragment, inserted as-is.
	if s.Content != "" {
		buf.WriteString(s.Content)
	}
	buf.WriteString("</section>")
}

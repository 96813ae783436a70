package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/devaudit/devaudit/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for committing audit results into docs/ and
// sharing them in reviews.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// generatedBy identifies the tool and version that produced the report.
	generatedBy string

	// docPath is the project-relative path the report will be written to.
	// It appears in the metadata header's File field. Empty means the
	// report goes to a terminal and gets a placeholder path.
	docPath string

	// now returns the generation time. Overridable in tests.
	now func() time.Time
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithDocPath sets the project-relative output path recorded in the
// report's metadata header.
func WithDocPath(path string) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.docPath = path
	}
}

// WithMarkdownClock overrides the generation timestamp source.
func WithMarkdownClock(now func() time.Time) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.now = now
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, generatedBy string, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter:  newBaseWriter(output),
		generatedBy: generatedBy,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in Markdown format. The document opens
// with the same metadata header block the documentation tools expect on
// generated files, so an audit report committed under docs/ is itself
// tracked for staleness.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	header := w.docHeader(report)
	headerLen, err := io.WriteString(w.output, header.Render()+"\n")
	if err != nil {
		return headerLen, err
	}

	md := markdown.NewMarkdown(w.output)

	w.writeOverview(md, report)
	w.writeSummary(md, report)
	w.writeToolResults(md, report)
	w.writeFooter(md)

	return headerLen + len(md.String()), md.Build()
}

// docHeader builds the metadata header block for this report.
func (w *MarkdownWriter) docHeader(report *model.AuditReport) *model.DocHeader {
	docPath := w.docPath
	if docPath == "" {
		docPath = "audit-report.md"
	}
	now := w.now()
	return &model.DocHeader{
		File:          docPath,
		Generated:     report.StartedAt,
		LastGenerated: now,
		Source:        report.ProjectRoot,
		Purpose:       GeneratedNote,
		Status:        report.Status(),
	}
}

// writeOverview writes the report title and run information table.
func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, report *model.AuditReport) {
	md.H1("Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Project", "`" + report.ProjectRoot + "`"},
			{"Mode", report.Mode},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.Round(time.Millisecond).String()},
			{"Tools Run", strconv.Itoa(len(report.PerformedTools))},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell based on report state.
func (w *MarkdownWriter) statusText(report *model.AuditReport) string {
	if report.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	switch report.Status() {
	case model.StatusError:
		return "❌ Error"
	case model.StatusIssues:
		return "⚠️ Issues Found"
	default:
		return "✅ Clean"
	}
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	counts := report.CountBySeverity()
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(counts[model.SeverityCritical])},
			{"🟠 High", strconv.Itoa(counts[model.SeverityHigh])},
			{"🟡 Medium", strconv.Itoa(counts[model.SeverityMedium])},
			{"🔵 Low", strconv.Itoa(counts[model.SeverityLow])},
			{"⚪ Info", strconv.Itoa(counts[model.SeverityInfo])},
			{"**Total**", "**" + strconv.Itoa(report.TotalIssues()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, counts)
	}

	w.writeAlert(md, report, counts)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Severity]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if counts[model.SeverityCritical] > 0 {
		chart.LabelAndIntValue("Critical", uint64(counts[model.SeverityCritical]))
	}
	if counts[model.SeverityHigh] > 0 {
		chart.LabelAndIntValue("High", uint64(counts[model.SeverityHigh]))
	}
	if counts[model.SeverityMedium] > 0 {
		chart.LabelAndIntValue("Medium", uint64(counts[model.SeverityMedium]))
	}
	if counts[model.SeverityLow] > 0 {
		chart.LabelAndIntValue("Low", uint64(counts[model.SeverityLow]))
	}
	if counts[model.SeverityInfo] > 0 {
		chart.LabelAndIntValue("Info", uint64(counts[model.SeverityInfo]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.AuditReport, counts map[model.Severity]int) {
	switch {
	case counts[model.SeverityCritical] > 0:
		md.Cautionf(
			"Critical issues detected! %d critical finding(s) require immediate attention.",
			counts[model.SeverityCritical],
		)
	case counts[model.SeverityHigh] > 0:
		md.Warningf(
			"High severity issues detected. %d high severity finding(s) should block a release.",
			counts[model.SeverityHigh],
		)
	case counts[model.SeverityMedium] > 0:
		md.Importantf(
			"Medium severity issues found. %d finding(s) warrant attention.",
			counts[model.SeverityMedium],
		)
	case report.HasFindings():
		md.Note("Only low severity and informational findings detected.")
	default:
		md.Tip("No issues detected.")
	}
	md.PlainText("")
}

// writeToolResults writes one section per executed tool.
func (w *MarkdownWriter) writeToolResults(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Tool Results")
	md.PlainText("")

	for _, result := range report.Results {
		md.H3(fmt.Sprintf("%s (%s)", result.Tool, result.Tier))
		md.PlainText("")

		md.Table(markdown.TableSet{
			Header: []string{"Status", "Issues", "Files Affected", "Duration"},
			Rows: [][]string{{
				result.Summary.Status,
				strconv.Itoa(result.Summary.TotalIssues),
				strconv.Itoa(result.Summary.FilesAffected),
				result.Duration.Round(time.Millisecond).String(),
			}},
		})
		md.PlainText("")

		if result.Error != "" {
			md.Cautionf("Tool failed: %s", result.Error)
			md.PlainText("")
		}
		if result.Note != "" {
			md.Note(result.Note)
			md.PlainText("")
		}

		if len(result.Findings) > 0 {
			w.writeFindingsTable(md, result.Findings)
		}
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			f.SeverityText,
			f.Title,
			truncateString(location(f), 40),
			truncateString(orDash(f.Value), 50),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Title", "Location", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	// Collapsible descriptions keep long reports scannable.
	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title, f.Description)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by %s*", w.generatedBy)
}

// location formats a finding's file and line for display.
func location(f model.Finding) string {
	switch {
	case f.File == "":
		return "-"
	case f.Line > 0:
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	default:
		return f.File
	}
}

// orDash substitutes "-" for empty table cells.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

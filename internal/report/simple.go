package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/devaudit/devaudit/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display,
// with color-coded severity levels and clear section formatting.
//
// Colors degrade automatically: the fatih/color package disables itself
// when output is not a terminal or NO_COLOR is set, so piping the report
// to a file yields plain text.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeToolResults(&sb, report)
	w.writeFindings(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AuditReport) {
	heading := color.New(color.FgWhite, color.Bold).SprintFunc()

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(heading("                          AUDIT REPORT"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Project:   %s\n", report.ProjectRoot)
	fmt.Fprintf(sb, "Mode:      %s\n", report.Mode)
	fmt.Fprintf(sb, "Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:  %s\n", report.Duration.Round(time.Millisecond))

	switch {
	case report.Cancelled:
		fmt.Fprintf(sb, "Status:    %s\n", color.YellowString("CANCELLED (partial results)"))
	case report.Status() == model.StatusError:
		fmt.Fprintf(sb, "Status:    %s\n", color.RedString("ERROR"))
	case report.Status() == model.StatusIssues:
		fmt.Fprintf(sb, "Status:    %s\n", color.YellowString("ISSUES FOUND"))
	default:
		fmt.Fprintf(sb, "Status:    %s\n", color.GreenString("CLEAN"))
	}

	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.AuditReport) {
	w.sectionHeader(sb, "SEVERITY SUMMARY")

	counts := report.CountBySeverity()
	fmt.Fprintf(sb, "  %s %d\n", severityLabel(model.SeverityCritical), counts[model.SeverityCritical])
	fmt.Fprintf(sb, "  %s %d\n", severityLabel(model.SeverityHigh), counts[model.SeverityHigh])
	fmt.Fprintf(sb, "  %s %d\n", severityLabel(model.SeverityMedium), counts[model.SeverityMedium])
	fmt.Fprintf(sb, "  %s %d\n", severityLabel(model.SeverityLow), counts[model.SeverityLow])
	fmt.Fprintf(sb, "  %s %d\n", severityLabel(model.SeverityInfo), counts[model.SeverityInfo])
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d findings in %d files\n", report.TotalIssues(), report.FilesAffected())
	sb.WriteString("\n")
}

// writeToolResults writes the per-tool status section.
func (w *SimpleWriter) writeToolResults(sb *strings.Builder, report *model.AuditReport) {
	w.sectionHeader(sb, "TOOLS")

	for _, result := range report.Results {
		fmt.Fprintf(sb, "  %-22s %-13s %s %4d issue(s)  %s\n",
			result.Tool,
			"["+string(result.Tier)+"]",
			statusLabel(result.Summary.Status),
			result.Summary.TotalIssues,
			result.Duration.Round(time.Millisecond),
		)
		if result.Error != "" {
			fmt.Fprintf(sb, "      %s %s\n", color.RedString("error:"), result.Error)
		}
		if result.Note != "" {
			fmt.Fprintf(sb, "      note: %s\n", result.Note)
		}
	}
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.AuditReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}

	w.sectionHeader(sb, "FINDINGS")

	// Critical first.
	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := findingsBySeverity(report, severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		fmt.Fprintf(sb, "%s\n", severityLabel(severity))
		if len(findings) == 0 {
			sb.WriteString("  No findings\n\n")
			continue
		}

		for _, f := range findings {
			fmt.Fprintf(sb, "  * [%s] %s\n", f.Tool, f.Title)
			if loc := location(f); loc != "-" {
				fmt.Fprintf(sb, "    Location: %s\n", loc)
			}
			if f.Value != "" {
				fmt.Fprintf(sb, "    Value: %s\n", f.Value)
			}
			if w.verbose && f.Description != "" {
				fmt.Fprintf(sb, "    Description: %s\n", f.Description)
			}
		}
		sb.WriteString("\n")
	}
}

// sectionHeader writes a dashed section separator with a title.
func (w *SimpleWriter) sectionHeader(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// findingsBySeverity collects findings at the given severity across all tools.
func findingsBySeverity(report *model.AuditReport, severity model.Severity) []model.Finding {
	var out []model.Finding
	for _, result := range report.Results {
		for _, f := range result.Findings {
			if f.Severity == severity {
				out = append(out, f)
			}
		}
	}
	return out
}

// severityLabel returns a fixed-width, color-coded severity label.
func severityLabel(severity model.Severity) string {
	label := fmt.Sprintf("%-9s", severity.String()+":")
	switch severity {
	case model.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	case model.SeverityHigh:
		return color.New(color.FgRed).Sprint(label)
	case model.SeverityMedium:
		return color.New(color.FgYellow).Sprint(label)
	case model.SeverityLow:
		return color.New(color.FgBlue).Sprint(label)
	default:
		return label
	}
}

// statusLabel returns a color-coded tool status.
func statusLabel(status string) string {
	switch status {
	case model.StatusError:
		return color.RedString("%-6s", status)
	case model.StatusIssues:
		return color.YellowString("%-6s", status)
	default:
		return color.GreenString("%-6s", status)
	}
}

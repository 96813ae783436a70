package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/devaudit/devaudit/internal/model"
)

// GeneratedNote is the fixed note carried in every machine-generated report
// so downstream consumers know not to edit it by hand.
const GeneratedNote = "machine-generated audit report; do not edit by hand"

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// generatedBy identifies the tool and version that produced the report.
	generatedBy string

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// now returns the generation time. Overridable in tests.
	now func() time.Time
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// WithClock overrides the generation timestamp source.
func WithClock(now func() time.Time) JSONWriterOption {
	return func(w *JSONWriter) {
		w.now = now
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// The generatedBy string identifies the producing tool, e.g. "devaudit v1.2.0".
func NewJSONWriter(output io.Writer, generatedBy string, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:  newBaseWriter(output),
		generatedBy: generatedBy,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in JSON format, wrapped with the
// generation metadata every machine-generated artifact carries.
func (w *JSONWriter) Write(report *model.AuditReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.generatedBy, w.now()))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// Summary is the condensed view of an audit run, suitable for dashboards
// that only need counts rather than individual findings.
type Summary struct {
	// Mode is the audit mode that produced the run.
	Mode string `json:"mode"`

	// Status is the overall run status: ok, issues, or error.
	Status string `json:"status"`

	// TotalIssues is the number of findings across all tools.
	TotalIssues int `json:"total_issues"`

	// FilesAffected is the number of distinct files with findings.
	FilesAffected int `json:"files_affected"`

	// SeverityCounts holds the number of findings per severity level,
	// keyed by the severity name (INFO through CRITICAL).
	SeverityCounts map[string]int `json:"severity_counts"`

	// ToolsRun lists the tools executed during the run.
	ToolsRun []string `json:"tools_run"`
}

// NewSummary builds the condensed summary from a full report.
func NewSummary(report *model.AuditReport) *Summary {
	counts := make(map[string]int, 5)
	for sev, n := range report.CountBySeverity() {
		counts[sev.String()] = n
	}
	return &Summary{
		Mode:           report.Mode,
		Status:         report.Status(),
		TotalIssues:    report.TotalIssues(),
		FilesAffected:  report.FilesAffected(),
		SeverityCounts: counts,
		ToolsRun:       report.PerformedTools,
	}
}

// JSONReport is a wrapper for the full report with generation metadata.
// Every machine-generated artifact carries the same root fields so
// consumers can identify the producer and freshness without parsing
// format-specific content.
//
// Design decision: We wrap the report rather than modifying AuditReport
// because this allows us to add output-specific fields without polluting
// the core data structure.
type JSONReport struct {
	// GeneratedBy identifies the producing tool and version.
	GeneratedBy string `json:"generated_by"`

	// LastGenerated is when this serialization was produced, RFC3339.
	LastGenerated string `json:"last_generated"`

	// Source is the audited project root.
	Source string `json:"source"`

	// Note marks the report as machine-generated.
	Note string `json:"note"`

	// Timestamp is when the audit run started, RFC3339.
	Timestamp string `json:"timestamp"`

	// Summary is the condensed run summary for quick access.
	Summary *Summary `json:"summary"`

	// Report is the full audit report with per-tool results.
	Report *model.AuditReport `json:"report"`
}

// NewJSONReport creates a JSONReport wrapper with generation metadata.
func NewJSONReport(report *model.AuditReport, generatedBy string, now time.Time) *JSONReport {
	return &JSONReport{
		GeneratedBy:   generatedBy,
		LastGenerated: now.UTC().Format(time.RFC3339),
		Source:        report.ProjectRoot,
		Note:          GeneratedNote,
		Timestamp:     report.StartedAt.UTC().Format(time.RFC3339),
		Summary:       NewSummary(report),
		Report:        report,
	}
}

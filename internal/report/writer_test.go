package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/devaudit/devaudit/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.AuditReport {
	report := model.NewAuditReport("/work/sample", model.ModeDefault)
	report.StartedAt = time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	report.Duration = 1500 * time.Millisecond

	registry := model.NewToolResult("function-registry", model.TierCore)
	f := model.NewFinding("function-registry", "missing_doc_comment", "internal/server/server.go", 42)
	f.Value = "HandleRequest"
	registry.AddFinding(f)
	registry.Duration = 300 * time.Millisecond
	report.AddResult(registry)

	imports := model.NewToolResult("import-audit", model.TierCore)
	f = model.NewFinding("import-audit", "disallowed_import", "internal/server/server.go", 7)
	f.Value = "github.com/forbidden/pkg"
	imports.AddFinding(f)
	imports.Duration = 120 * time.Millisecond
	report.AddResult(imports)

	ascii := model.NewToolResult("ascii-check", model.TierExperimental)
	ascii.Duration = 80 * time.Millisecond
	report.AddResult(ascii)

	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "AUDIT REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "/work/sample") {
			t.Error("expected output to contain project root")
		}
		if !strings.Contains(output, "ISSUES FOUND") {
			t.Error("expected issues status")
		}
	})

	t.Run("writes severity summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SEVERITY SUMMARY") {
			t.Error("expected output to contain severity summary")
		}
		if !strings.Contains(output, "HIGH:") {
			t.Error("expected output to contain HIGH count")
		}
		if !strings.Contains(output, "2 findings in 1 files") {
			t.Errorf("expected totals line, got:\n%s", output)
		}
	})

	t.Run("writes per-tool rows", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, tool := range []string{"function-registry", "import-audit", "ascii-check"} {
			if !strings.Contains(output, tool) {
				t.Errorf("expected output to list tool %s", tool)
			}
		}
	})

	t.Run("writes findings with locations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "internal/server/server.go:42") {
			t.Error("expected output to contain finding location")
		}
		if !strings.Contains(output, "github.com/forbidden/pkg") {
			t.Error("expected output to contain finding value")
		}
	})

	t.Run("verbose includes descriptions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		report := createTestReport()
		report.Results[0].Findings[0].Description = "exported without a doc comment"

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "exported without a doc comment") {
			t.Error("expected verbose output to contain description")
		}
	})

	t.Run("hides findings section for clean report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := model.NewAuditReport("/work/clean", model.ModeQuick)
		report.AddResult(model.NewToolResult("legacy-scan", model.TierCore))

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "FINDINGS") {
			t.Error("expected no findings section for clean report")
		}
		if !strings.Contains(output, "CLEAN") {
			t.Error("expected clean status")
		}
	})
}

// TestJSONWriter tests the machine-readable report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	fixedNow := func() time.Time {
		return time.Date(2026, 2, 10, 9, 31, 30, 0, time.UTC)
	}

	t.Run("produces valid JSON with generation metadata", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, "devaudit v1.0.0", WithClock(fixedNow))
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if decoded["generated_by"] != "devaudit v1.0.0" {
			t.Errorf("generated_by = %v", decoded["generated_by"])
		}
		if decoded["source"] != "/work/sample" {
			t.Errorf("source = %v", decoded["source"])
		}
		if decoded["note"] != GeneratedNote {
			t.Errorf("note = %v", decoded["note"])
		}
		if decoded["timestamp"] != "2026-02-10T09:30:00Z" {
			t.Errorf("timestamp = %v", decoded["timestamp"])
		}
		if decoded["last_generated"] != "2026-02-10T09:31:30Z" {
			t.Errorf("last_generated = %v", decoded["last_generated"])
		}
	})

	t.Run("summary carries counts and tool list", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, "devaudit v1.0.0")
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if decoded.Summary.TotalIssues != 2 {
			t.Errorf("total_issues = %d, want 2", decoded.Summary.TotalIssues)
		}
		if decoded.Summary.Status != model.StatusIssues {
			t.Errorf("status = %q", decoded.Summary.Status)
		}
		if decoded.Summary.SeverityCounts["HIGH"] != 1 {
			t.Errorf("HIGH count = %d, want 1", decoded.Summary.SeverityCounts["HIGH"])
		}
		if len(decoded.Summary.ToolsRun) != 3 {
			t.Errorf("tools_run = %v", decoded.Summary.ToolsRun)
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, "devaudit v1.0.0", WithPrettyPrint())
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  \"generated_by\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("per-tool summary blocks survive round trip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, "devaudit v1.0.0")
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		first := decoded.Report.Results[0]
		if first.Tool != "function-registry" {
			t.Errorf("tool = %q", first.Tool)
		}
		if first.Summary.TotalIssues != 1 || first.Summary.Status != model.StatusIssues {
			t.Errorf("summary = %+v", first.Summary)
		}
	})
}

// TestMarkdownWriter tests the markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	fixedNow := func() time.Time {
		return time.Date(2026, 2, 10, 9, 31, 30, 0, time.UTC)
	}

	t.Run("opens with a parseable metadata header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, "devaudit v1.0.0",
			WithDocPath("docs/audit-report.md"),
			WithMarkdownClock(fixedNow),
		)
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !model.IsGeneratedDoc(output) {
			t.Fatal("expected output to start with the generated marker")
		}

		header, ok := model.ParseDocHeader(output)
		if !ok {
			t.Fatal("expected a well-formed metadata header")
		}
		if header.File != "docs/audit-report.md" {
			t.Errorf("File = %q", header.File)
		}
		if header.Source != "/work/sample" {
			t.Errorf("Source = %q", header.Source)
		}
		if !header.LastGenerated.Equal(fixedNow()) {
			t.Errorf("Last Generated = %v", header.LastGenerated)
		}
	})

	t.Run("renders summary and tool sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, "devaudit v1.0.0")
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Audit Report",
			"## Severity Summary",
			"## Tool Results",
			"function-registry",
			"import-audit",
			"internal/server/server.go:7",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("warns on high severity findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, "devaudit v1.0.0")
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "[!WARNING]") {
			t.Error("expected a warning alert for high severity findings")
		}
	})

	t.Run("includes mermaid chart when findings exist", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, "devaudit v1.0.0")
		report := createTestReport()

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "```mermaid") {
			t.Error("expected a mermaid pie chart")
		}
	})

	t.Run("tips on clean report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, "devaudit v1.0.0")
		report := model.NewAuditReport("/work/clean", model.ModeQuick)
		report.AddResult(model.NewToolResult("legacy-scan", model.TierCore))

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected a tip alert for clean report")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart for clean report")
		}
	})
}

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var simple, jsonBuf bytes.Buffer
		mw := NewMultiWriter(
			NewSimpleWriter(&simple),
			NewJSONWriter(&jsonBuf, "devaudit v1.0.0"),
		)
		report := createTestReport()

		n, err := mw.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != simple.Len()+jsonBuf.Len() {
			t.Errorf("reported %d bytes, want %d", n, simple.Len()+jsonBuf.Len())
		}
		if simple.Len() == 0 || jsonBuf.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(
			&failingWriter{},
			NewSimpleWriter(&buf),
		)

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("expected later writers to be skipped after error")
		}
	})
}

// failingWriter always fails, for MultiWriter error tests.
type failingWriter struct{}

func (f *failingWriter) Write(_ *model.AuditReport) (int, error) {
	return 0, errors.New("write failed")
}

package model

import (
	"sort"
	"time"
)

// Tool result status values.
// These appear verbatim in the standardized tool output JSON.
const (
	// StatusOK means the tool ran and found nothing.
	StatusOK = "ok"

	// StatusIssues means the tool ran and produced findings.
	StatusIssues = "issues"

	// StatusError means the tool failed to complete.
	StatusError = "error"
)

// ToolSummary is the standardized summary block every tool emits.
type ToolSummary struct {
	// TotalIssues is the number of findings the tool produced.
	TotalIssues int `json:"total_issues"`

	// FilesAffected is the number of distinct files with findings.
	FilesAffected int `json:"files_affected"`

	// Status is one of StatusOK, StatusIssues, StatusError.
	Status string `json:"status"`
}

// ToolResult is the standardized output of a single tool run.
// Every tool produces the same envelope: a summary block plus tool-specific
// details, so reports and the history store can treat tools uniformly.
type ToolResult struct {
	// Tool is the tool name (e.g. "function-registry").
	Tool string `json:"tool"`

	// Tier is the tool's tier at the time of the run.
	Tier Tier `json:"tier"`

	// Summary is the standardized summary block.
	Summary ToolSummary `json:"summary"`

	// Details holds tool-specific structured data (registries, per-package
	// coverage, link inventories). Keys and shapes vary per tool.
	Details map[string]any `json:"details,omitempty"`

	// Findings contains the individual issues the tool discovered.
	Findings []Finding `json:"findings,omitempty"`

	// Note carries run-level caveats, e.g. that a dependency tool failed
	// and the results may be incomplete.
	Note string `json:"note,omitempty"`

	// Error is the failure message when Status is StatusError.
	Error string `json:"error,omitempty"`

	// Duration is how long the tool ran.
	Duration time.Duration `json:"duration_ns"`
}

// NewToolResult creates an empty result for the named tool.
func NewToolResult(tool string, tier Tier) *ToolResult {
	return &ToolResult{
		Tool:    tool,
		Tier:    tier,
		Summary: ToolSummary{Status: StatusOK},
	}
}

// AddFinding appends a finding and keeps the summary consistent.
func (r *ToolResult) AddFinding(f Finding) {
	r.Findings = append(r.Findings, f)
	r.recount()
}

// AddFindings appends multiple findings and keeps the summary consistent.
func (r *ToolResult) AddFindings(fs ...Finding) {
	r.Findings = append(r.Findings, fs...)
	r.recount()
}

// Fail marks the result as errored with the given message.
func (r *ToolResult) Fail(msg string) {
	r.Error = msg
	r.Summary.Status = StatusError
}

// SetDetail stores a tool-specific detail value under the given key.
func (r *ToolResult) SetDetail(key string, value any) {
	if r.Details == nil {
		r.Details = make(map[string]any)
	}
	r.Details[key] = value
}

// recount recomputes TotalIssues, FilesAffected, and Status from findings.
func (r *ToolResult) recount() {
	r.Summary.TotalIssues = len(r.Findings)

	files := make(map[string]struct{})
	for _, f := range r.Findings {
		if f.File != "" {
			files[f.File] = struct{}{}
		}
	}
	r.Summary.FilesAffected = len(files)

	if r.Summary.Status != StatusError {
		if len(r.Findings) > 0 {
			r.Summary.Status = StatusIssues
		} else {
			r.Summary.Status = StatusOK
		}
	}
}

// MaxSeverity returns the highest severity among the findings, or
// SeverityInfo and false when there are none.
func (r *ToolResult) MaxSeverity() (Severity, bool) {
	if len(r.Findings) == 0 {
		return SeverityInfo, false
	}
	max := SeverityInfo
	for _, f := range r.Findings {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max, true
}

// SortFindings orders findings by descending severity, then by file and line.
// Deterministic ordering keeps reports diffable between runs.
func (r *ToolResult) SortFindings() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
}

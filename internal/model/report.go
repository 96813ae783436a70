package model

import (
	"time"
)

// Audit run modes. The mode determines which tiers are executed.
const (
	// ModeQuick runs core-tier tools only.
	ModeQuick = "quick"

	// ModeDefault runs core and supporting tiers.
	ModeDefault = "default"

	// ModeFull runs all tiers including experimental.
	ModeFull = "full"
)

// AuditReport is the aggregated result of one audit run.
//
// Design decision: We keep one flat struct with per-tool results inside
// rather than many small structs to simplify serialization and database
// storage, mirroring how tools themselves report one envelope each.
type AuditReport struct {
	// ProjectRoot is the absolute path of the audited project.
	ProjectRoot string `json:"project_root"`

	// Mode is the audit mode: quick, default, or full.
	Mode string `json:"mode"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall-clock time of the run.
	Duration time.Duration `json:"duration_ns"`

	// Results holds one entry per executed tool, in execution order.
	Results []*ToolResult `json:"results"`

	// PerformedTools lists the tools that actually ran.
	PerformedTools []string `json:"performed_tools,omitempty"`

	// Cancelled is true if the run was interrupted before completion.
	Cancelled bool `json:"cancelled"`
}

// NewAuditReport creates an empty report for a run starting now.
func NewAuditReport(projectRoot, mode string) *AuditReport {
	return &AuditReport{
		ProjectRoot: projectRoot,
		Mode:        mode,
		StartedAt:   time.Now(),
	}
}

// AddResult appends a tool result and records the tool as performed.
func (r *AuditReport) AddResult(res *ToolResult) {
	r.Results = append(r.Results, res)
	r.PerformedTools = append(r.PerformedTools, res.Tool)
}

// TotalIssues returns the number of findings across all tools.
func (r *AuditReport) TotalIssues() int {
	total := 0
	for _, res := range r.Results {
		total += res.Summary.TotalIssues
	}
	return total
}

// FilesAffected returns the number of distinct files with findings
// across all tools.
func (r *AuditReport) FilesAffected() int {
	files := make(map[string]struct{})
	for _, res := range r.Results {
		for _, f := range res.Findings {
			if f.File != "" {
				files[f.File] = struct{}{}
			}
		}
	}
	return len(files)
}

// Status returns the overall run status: StatusError if any tool errored,
// StatusIssues if any tool produced findings, StatusOK otherwise.
func (r *AuditReport) Status() string {
	status := StatusOK
	for _, res := range r.Results {
		switch res.Summary.Status {
		case StatusError:
			return StatusError
		case StatusIssues:
			status = StatusIssues
		}
	}
	return status
}

// CountBySeverity returns the number of findings at each severity level.
// The map always contains all five levels so renderers don't need to
// handle missing keys.
func (r *AuditReport) CountBySeverity() map[Severity]int {
	counts := map[Severity]int{
		SeverityInfo:     0,
		SeverityLow:      0,
		SeverityMedium:   0,
		SeverityHigh:     0,
		SeverityCritical: 0,
	}
	for _, res := range r.Results {
		for _, f := range res.Findings {
			counts[f.Severity]++
		}
	}
	return counts
}

// CountAtOrAbove returns the number of findings at or above the given severity.
func (r *AuditReport) CountAtOrAbove(min Severity) int {
	total := 0
	for _, res := range r.Results {
		for _, f := range res.Findings {
			if f.Severity >= min {
				total++
			}
		}
	}
	return total
}

// HasFindings reports whether any tool produced at least one finding.
func (r *AuditReport) HasFindings() bool {
	return r.TotalIssues() > 0
}

package model

// Finding represents a single issue discovered by an audit tool.
// File paths are always project-relative so that reports are stable
// across machines and diffable between runs.
type Finding struct {
	// Tool is the name of the tool that produced this finding.
	Tool string `json:"tool"`

	// Type is the finding type identifier (e.g. "missing_doc_comment").
	// This maps to the findingInfoMapping in this package.
	Type string `json:"type"`

	// Severity is the impact level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// File is the project-relative path of the affected file.
	File string `json:"file,omitempty"`

	// Line is the 1-based line number, or 0 when the finding is file-level.
	Line int `json:"line,omitempty"`

	// Value is the specific value found (identifier, import path, URL, etc.).
	Value string `json:"value,omitempty"`
}

// FindingInfo contains metadata about a finding type: its default severity,
// a title template, and a remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Title          string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping ensures consistent risk assessment across tools.
//
// Design decision: We use a map rather than embedding severity in each tool
// because it provides a single source of truth for risk levels and makes it
// easy to generate severity documentation.
var findingInfoMapping = map[string]FindingInfo{
	// HIGH - should block a release
	"disallowed_import": {
		Severity:       SeverityHigh,
		Title:          "Disallowed import path",
		Recommendation: "Replace the import with an approved package or remove the dependency.",
	},
	"stale_generated_doc": {
		Severity:       SeverityHigh,
		Title:          "Generated documentation is stale",
		Recommendation: "Regenerate the document from its sources, or run doc-fix to refresh its digest.",
	},
	"coverage_below_global_threshold": {
		Severity:       SeverityHigh,
		Title:          "Total coverage below project threshold",
		Recommendation: "Add tests for uncovered statements or adjust the threshold deliberately.",
	},
	"invisible_control_character": {
		Severity:       SeverityHigh,
		Title:          "Invisible or bidirectional control character",
		Recommendation: "Remove the character; it can make reviewed code differ from compiled code.",
	},

	// MEDIUM - warrants attention
	"long_function": {
		Severity:       SeverityMedium,
		Title:          "Function exceeds maximum length",
		Recommendation: "Split the function into smaller, testable pieces.",
	},
	"blank_import": {
		Severity:       SeverityMedium,
		Title:          "Blank import outside main or test file",
		Recommendation: "Move driver-style blank imports into package main or document the side effect.",
	},
	"legacy_reference": {
		Severity:       SeverityMedium,
		Title:          "Legacy reference",
		Recommendation: "Migrate to the replacement named in the audit configuration.",
	},
	"broken_link": {
		Severity:       SeverityMedium,
		Title:          "Broken intra-repository link",
		Recommendation: "Fix the link target or remove the link.",
	},
	"missing_doc_header": {
		Severity:       SeverityMedium,
		Title:          "Generated document is missing its metadata header",
		Recommendation: "Run doc-fix to insert the standard header block.",
	},
	"missing_doc_source": {
		Severity:       SeverityMedium,
		Title:          "Generated document references a missing source file",
		Recommendation: "Update the Source line in the document header or restore the source file.",
	},
	"coverage_below_package_threshold": {
		Severity:       SeverityMedium,
		Title:          "Package coverage below threshold",
		Recommendation: "Add tests for the package or set a package-specific threshold.",
	},
	"unparseable_file": {
		Severity:       SeverityMedium,
		Title:          "File does not parse",
		Recommendation: "Fix the syntax error; unparseable files are invisible to the other tools.",
	},

	// LOW - minor issues
	"missing_doc_comment": {
		Severity:       SeverityLow,
		Title:          "Exported function without doc comment",
		Recommendation: "Add a doc comment starting with the function name.",
	},
	"duplicate_import": {
		Severity:       SeverityLow,
		Title:          "Package imported more than once",
		Recommendation: "Keep a single import and drop the redundant alias.",
	},
	"heading_level_jump": {
		Severity:       SeverityLow,
		Title:          "Heading level jump",
		Recommendation: "Use consecutive heading levels (H2 under H1, H3 under H2).",
	},
	"multiple_h1": {
		Severity:       SeverityLow,
		Title:          "Multiple top-level headings",
		Recommendation: "Keep a single H1 per document.",
	},
	"normalization_drift": {
		Severity:       SeverityLow,
		Title:          "Text is not NFC-normalized",
		Recommendation: "Normalize the file to NFC so diffs and searches behave predictably.",
	},

	// INFO - recorded for reference
	"non_ascii_rune": {
		Severity:       SeverityInfo,
		Title:          "Non-ASCII rune in source file",
		Recommendation: "Verify the character is intentional; prefer escapes in string literals.",
	},
}

// GetFindingInfo returns the metadata for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is unknown.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Title:          "Unclassified finding",
		Recommendation: "Investigate the finding and assess its impact.",
	}
}

// NewFinding creates a Finding of the given type with severity, title, and
// recommendation filled from the central mapping.
func NewFinding(tool, findingType, file string, line int) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Tool:           tool,
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          info.Title,
		Recommendation: info.Recommendation,
		File:           file,
		Line:           line,
	}
}

// WithSeverity returns a copy of the finding with an overridden severity.
// Used when configuration escalates or downgrades a pattern.
func (f Finding) WithSeverity(s Severity) Finding {
	f.Severity = s
	f.SeverityText = s.String()
	return f
}

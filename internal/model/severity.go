package model

import "fmt"

// Severity represents the impact level of an audit finding.
// It allows sorting and filtering findings by how urgently they need
// attention.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct impact.
	// Examples: registry entries recorded for reference, non-ASCII runes in
	// string literals.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: exported functions without doc comments, duplicate imports,
	// normalization drift in documentation.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: overly long functions, blank imports outside main packages,
	// legacy references, broken intra-repo links.
	SeverityMedium

	// SeverityHigh indicates serious issues that should block a release.
	// Examples: disallowed imports, stale generated documentation, total
	// coverage below the project threshold, invisible control characters.
	SeverityHigh

	// SeverityCritical indicates issues requiring immediate attention.
	// Reserved for config-escalated patterns (e.g. a legacy pattern marking
	// code that must not ship).
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a configuration string to a Severity.
// Matching is case-insensitive on the canonical names. An empty string
// returns the provided fallback.
func ParseSeverity(s string, fallback Severity) (Severity, error) {
	switch s {
	case "":
		return fallback, nil
	case "info", "INFO":
		return SeverityInfo, nil
	case "low", "LOW":
		return SeverityLow, nil
	case "medium", "MEDIUM":
		return SeverityMedium, nil
	case "high", "HIGH":
		return SeverityHigh, nil
	case "critical", "CRITICAL":
		return SeverityCritical, nil
	default:
		return fallback, fmt.Errorf("unknown severity %q (expected info, low, medium, high, or critical)", s)
	}
}

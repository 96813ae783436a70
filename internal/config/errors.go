package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and File.Validate() and
// provide specific information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrNoProjectRoot is returned when no project root could be resolved.
	// This happens when --project-root is not given and no go.mod exists in
	// the working directory or any of its parents.
	ErrNoProjectRoot = errors.New("no project root: pass --project-root or run inside a Go module")

	// ErrInvalidJobs is returned when the concurrency limit is not positive.
	ErrInvalidJobs = errors.New("invalid jobs value: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMode is returned for an unknown audit mode.
	ErrInvalidMode = errors.New("invalid audit mode: expected quick, default, or full")

	// ErrInvalidThreshold is returned when a coverage threshold is outside [0, 100].
	ErrInvalidThreshold = errors.New("invalid coverage threshold: must be between 0 and 100")

	// ErrEmptyLegacyPattern is returned when a legacy entry has no pattern.
	ErrEmptyLegacyPattern = errors.New("legacy entry with empty pattern")
)

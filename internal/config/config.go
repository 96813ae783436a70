package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/devaudit/devaudit/internal/model"
)

// Default configuration values.
// These are deliberately conservative: an audit tool that cries wolf gets
// disabled, so thresholds start where most healthy Go projects already are.
const (
	// DefaultJobs is the number of tools run concurrently within a
	// dependency group. Tools are I/O bound (file walking, parsing), so a
	// small fixed number works better than GOMAXPROCS on large trees.
	DefaultJobs = 4

	// DefaultMaxFuncLines is the function length above which
	// function-registry reports a finding. 80 lines fits on roughly two
	// screens, which is where review quality measurably drops off.
	DefaultMaxFuncLines = 80

	// DefaultCoverageProfile is the cover profile path relative to the
	// project root, matching the common `go test -coverprofile=coverage.out`
	// invocation.
	DefaultCoverageProfile = "coverage.out"

	// DefaultTotalCoverageThreshold is the project-wide statement coverage
	// floor in percent. 60 is low enough not to punish projects that were
	// never designed for testability, and can be raised per project.
	DefaultTotalCoverageThreshold = 60.0

	// DefaultHistoryRetention is how many audit runs and coverage snapshots
	// the history store keeps before pruning.
	DefaultHistoryRetention = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "devaudit"
)

// DefaultIgnoreGlobs are path patterns excluded from every walk.
// Vendored and generated trees belong to their upstreams, not this audit.
var DefaultIgnoreGlobs = []string{
	".git",
	"vendor",
	"node_modules",
	"testdata",
}

// DefaultDocDirs are the directories searched for documentation files,
// relative to the project root. The root itself is always included for
// README-style files.
var DefaultDocDirs = []string{"docs"}

// Config holds all options for one devaudit invocation.
// This struct is populated from CLI flags plus the project config file and
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for CLI-level options; the YAML file keeps its own schema in File. The
// number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// ProjectRoot is the absolute path of the project being audited.
	// Resolved from --project-root or by walking up to the nearest go.mod.
	ProjectRoot string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches .devaudit.yaml in the project root and
	// then in the user's home directory.
	ConfigFilePath string

	// Mode selects which tiers run: model.ModeQuick, ModeDefault, or ModeFull.
	Mode string

	// Jobs is the maximum number of tools running concurrently inside a
	// dependency group.
	Jobs int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is an optional path to write the report to instead of stdout.
	ReportFile string

	// SaveToDB controls whether the run is recorded in the history store.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	DBDir string

	// File holds the project configuration loaded from YAML.
	// Never nil after buildConfig; defaults apply when no file was found.
	File *File
}

// NewConfig creates a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		Mode:     model.ModeDefault,
		Jobs:     DefaultJobs,
		SaveToDB: true,
		DBDir:    XDGDataDir(),
		File:     NewFile(),
	}
}

// Validate checks the configuration for inconsistencies.
// It returns a sentinel error from errors.go so callers can use errors.Is().
func (c *Config) Validate() error {
	if c.ProjectRoot == "" {
		return ErrNoProjectRoot
	}
	if c.Jobs <= 0 {
		return ErrInvalidJobs
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	switch c.Mode {
	case model.ModeQuick, model.ModeDefault, model.ModeFull:
	default:
		return ErrInvalidMode
	}
	return c.File.Validate()
}

// XDGDataDir returns the XDG data directory for devaudit.
// Typically ~/.local/share/devaudit on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

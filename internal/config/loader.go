package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/devaudit/devaudit/internal/model"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".devaudit.yaml"

// File is the YAML project configuration schema.
//
// Example:
//
//	fail_severity: high
//	max_function_lines: 100
//	ignore:
//	  - vendor
//	  - gen
//	docs_dirs:
//	  - docs
//	  - guides
//	coverage:
//	  profile: coverage.out
//	  total_threshold: 70
//	  package_thresholds:
//	    internal/runner: 85
//	legacy:
//	  - pattern: 'OldRegistry\.'
//	    replacement: 'Registry.'
//	    severity: medium
//	    note: removed in v2
//	disallowed_imports:
//	  - ^github\.com/pkg/errors$
//	tools:
//	  ascii-check:
//	    tier: supporting
//	    enabled: true
type File struct {
	// FailSeverity is the severity at or above which `audit` exits non-zero.
	// One of info, low, medium, high, critical. Default: high.
	FailSeverity string `yaml:"fail_severity,omitempty"`

	// MaxFunctionLines overrides DefaultMaxFuncLines when positive.
	MaxFunctionLines int `yaml:"max_function_lines,omitempty"`

	// HistoryRetention overrides DefaultHistoryRetention when positive.
	HistoryRetention int `yaml:"history_retention,omitempty"`

	// Ignore lists directory or file names excluded from walks, in addition
	// to DefaultIgnoreGlobs.
	Ignore []string `yaml:"ignore,omitempty"`

	// DocsDirs lists documentation directories relative to the project root.
	DocsDirs []string `yaml:"docs_dirs,omitempty"`

	// Coverage configures the coverage tool.
	Coverage CoverageConfig `yaml:"coverage,omitempty"`

	// Legacy lists the legacy reference patterns to scan for.
	Legacy []LegacyPattern `yaml:"legacy,omitempty"`

	// DisallowedImports lists regular expressions matched against import paths.
	DisallowedImports []string `yaml:"disallowed_imports,omitempty"`

	// Tools holds per-tool overrides keyed by tool name.
	Tools map[string]ToolSetting `yaml:"tools,omitempty"`

	// DBDir overrides the history database directory. Relative paths are
	// resolved against the project root. Default: the XDG data directory.
	DBDir string `yaml:"db_dir,omitempty"`
}

// CoverageConfig configures coverage aggregation and thresholds.
type CoverageConfig struct {
	// Profile is the cover profile path relative to the project root.
	Profile string `yaml:"profile,omitempty"`

	// TotalThreshold is the project-wide statement coverage floor in percent.
	TotalThreshold float64 `yaml:"total_threshold,omitempty"`

	// PackageThresholds maps package import-path suffixes to per-package floors.
	PackageThresholds map[string]float64 `yaml:"package_thresholds,omitempty"`
}

// LegacyPattern describes one legacy reference to scan for.
type LegacyPattern struct {
	// Pattern is an RE2 regular expression matched per line.
	Pattern string `yaml:"pattern"`

	// Replacement, when non-empty, enables automatic rewriting via
	// `legacy --fix` and `doc-fix`.
	Replacement string `yaml:"replacement,omitempty"`

	// Severity overrides the default medium severity for matches.
	Severity string `yaml:"severity,omitempty"`

	// Note is shown alongside findings to explain the migration.
	Note string `yaml:"note,omitempty"`
}

// ToolSetting overrides a tool's default registration.
type ToolSetting struct {
	// Tier reclassifies the tool (core, supporting, experimental).
	Tier string `yaml:"tier,omitempty"`

	// Enabled can disable a tool entirely. Defaults to true.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// NewFile returns a File populated with defaults.
func NewFile() *File {
	return &File{
		FailSeverity: "high",
		Coverage: CoverageConfig{
			Profile:        DefaultCoverageProfile,
			TotalThreshold: DefaultTotalCoverageThreshold,
		},
		Tools: make(map[string]ToolSetting),
	}
}

// Validate checks the file-level configuration.
func (f *File) Validate() error {
	if _, err := model.ParseSeverity(f.FailSeverity, model.SeverityHigh); err != nil {
		return fmt.Errorf("fail_severity: %w", err)
	}
	if f.Coverage.TotalThreshold < 0 || f.Coverage.TotalThreshold > 100 {
		return fmt.Errorf("coverage.total_threshold %.1f: %w", f.Coverage.TotalThreshold, ErrInvalidThreshold)
	}
	for pkg, th := range f.Coverage.PackageThresholds {
		if th < 0 || th > 100 {
			return fmt.Errorf("coverage.package_thresholds[%s] %.1f: %w", pkg, th, ErrInvalidThreshold)
		}
	}
	for i, lp := range f.Legacy {
		if lp.Pattern == "" {
			return fmt.Errorf("legacy[%d]: %w", i, ErrEmptyLegacyPattern)
		}
		if _, err := regexp.Compile(lp.Pattern); err != nil {
			return fmt.Errorf("legacy[%d] pattern %q: %w", i, lp.Pattern, err)
		}
		if _, err := model.ParseSeverity(lp.Severity, model.SeverityMedium); err != nil {
			return fmt.Errorf("legacy[%d]: %w", i, err)
		}
	}
	for i, p := range f.DisallowedImports {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("disallowed_imports[%d] %q: %w", i, p, err)
		}
	}
	for name, ts := range f.Tools {
		if _, err := model.ParseTier(ts.Tier, model.TierCore); err != nil {
			return fmt.Errorf("tools[%s]: %w", name, err)
		}
	}
	return nil
}

// MaxFuncLines returns the effective function length limit.
func (f *File) MaxFuncLines() int {
	if f.MaxFunctionLines > 0 {
		return f.MaxFunctionLines
	}
	return DefaultMaxFuncLines
}

// Retention returns the effective history retention count.
func (f *File) Retention() int {
	if f.HistoryRetention > 0 {
		return f.HistoryRetention
	}
	return DefaultHistoryRetention
}

// IgnoreNames returns the combined default and configured ignore names.
func (f *File) IgnoreNames() []string {
	out := make([]string, 0, len(DefaultIgnoreGlobs)+len(f.Ignore))
	out = append(out, DefaultIgnoreGlobs...)
	out = append(out, f.Ignore...)
	return out
}

// DocDirs returns the effective documentation directories.
func (f *File) DocDirs() []string {
	if len(f.DocsDirs) > 0 {
		return f.DocsDirs
	}
	return DefaultDocDirs
}

// FailThreshold returns the parsed fail severity.
// Call Validate first; parse errors here fall back to high.
func (f *File) FailThreshold() model.Severity {
	s, err := model.ParseSeverity(f.FailSeverity, model.SeverityHigh)
	if err != nil {
		return model.SeverityHigh
	}
	return s
}

// LoadConfigFile loads the project configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers should
// handle this error appropriately based on whether the config file path
// was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	f := NewFile()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, err
	}
	if f.Tools == nil {
		f.Tools = make(map[string]ToolSetting)
	}
	if f.Coverage.Profile == "" {
		f.Coverage.Profile = DefaultCoverageProfile
	}
	if f.FailSeverity == "" {
		f.FailSeverity = "high"
	}
	return f, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .devaudit.yaml in the project root, then in its parents up to
//    and including the nearest directory containing go.mod
// 3. Look for .devaudit.yaml in the user's home directory
//
// Returns the path to the configuration file, or empty string if not found.
func FindConfigFile(configPath, projectRoot string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	dir := projectRoot
	for dir != "" {
		candidate := filepath.Join(dir, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		// Stop at the module root: config above go.mod belongs to
		// another project.
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

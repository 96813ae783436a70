package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devaudit/devaudit/internal/model"
)

// TestConfigValidate tests CLI-level configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ProjectRoot = "/tmp/proj"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing project root", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.Validate(); !errors.Is(err, ErrNoProjectRoot) {
			t.Errorf("got %v, want ErrNoProjectRoot", err)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ProjectRoot = "/tmp/proj"
		cfg.JSONReport = true
		cfg.MarkdownReport = true
		if err := cfg.Validate(); !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("got %v, want ErrConflictingReportFormats", err)
		}
	})

	t.Run("invalid jobs", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ProjectRoot = "/tmp/proj"
		cfg.Jobs = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidJobs) {
			t.Errorf("got %v, want ErrInvalidJobs", err)
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ProjectRoot = "/tmp/proj"
		cfg.Mode = "thorough"
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidMode) {
			t.Errorf("got %v, want ErrInvalidMode", err)
		}
	})
}

// TestFileValidate tests project file validation.
func TestFileValidate(t *testing.T) {
	t.Parallel()

	t.Run("bad legacy regex", func(t *testing.T) {
		t.Parallel()

		f := NewFile()
		f.Legacy = []LegacyPattern{{Pattern: "("}}
		if err := f.Validate(); err == nil {
			t.Error("expected error for invalid regex")
		}
	})

	t.Run("empty legacy pattern", func(t *testing.T) {
		t.Parallel()

		f := NewFile()
		f.Legacy = []LegacyPattern{{Replacement: "x"}}
		if err := f.Validate(); !errors.Is(err, ErrEmptyLegacyPattern) {
			t.Errorf("got %v, want ErrEmptyLegacyPattern", err)
		}
	})

	t.Run("threshold out of range", func(t *testing.T) {
		t.Parallel()

		f := NewFile()
		f.Coverage.TotalThreshold = 101
		if err := f.Validate(); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("got %v, want ErrInvalidThreshold", err)
		}
	})

	t.Run("bad tool tier", func(t *testing.T) {
		t.Parallel()

		f := NewFile()
		f.Tools["ascii-check"] = ToolSetting{Tier: "bleeding-edge"}
		if err := f.Validate(); err == nil {
			t.Error("expected error for unknown tier")
		}
	})
}

// TestLoadConfigFile tests YAML loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads full config", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		content := `
fail_severity: medium
max_function_lines: 120
docs_dirs:
  - docs
  - guides
coverage:
  profile: cover.out
  total_threshold: 75
legacy:
  - pattern: 'OldRegistry\.'
    replacement: 'Registry.'
    severity: high
    note: removed in v2
disallowed_imports:
  - ^github\.com/pkg/errors$
tools:
  ascii-check:
    tier: supporting
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := f.Validate(); err != nil {
			t.Fatalf("loaded config invalid: %v", err)
		}

		if f.FailThreshold() != model.SeverityMedium {
			t.Errorf("FailThreshold() = %v, want medium", f.FailThreshold())
		}
		if f.MaxFuncLines() != 120 {
			t.Errorf("MaxFuncLines() = %d, want 120", f.MaxFuncLines())
		}
		if f.Coverage.Profile != "cover.out" {
			t.Errorf("coverage profile = %q", f.Coverage.Profile)
		}
		if len(f.Legacy) != 1 || f.Legacy[0].Replacement != "Registry." {
			t.Errorf("legacy patterns = %+v", f.Legacy)
		}
		if got := f.DocDirs(); len(got) != 2 || got[1] != "guides" {
			t.Errorf("DocDirs() = %v", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("got %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("tools: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the search order.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path wins", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		explicit := filepath.Join(dir, "custom.yaml")
		if err := os.WriteFile(explicit, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(explicit, dir); got != explicit {
			t.Errorf("got %q, want %q", got, explicit)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/does/not/exist.yaml", ""); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})

	t.Run("project root default", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile("", dir); got != path {
			t.Errorf("got %q, want %q", got, path)
		}
	})

	t.Run("walks parents up to the module root", func(t *testing.T) {
		t.Parallel()

		moduleRoot := t.TempDir()
		if err := os.WriteFile(filepath.Join(moduleRoot, "go.mod"), []byte("module m\n"), 0600); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(moduleRoot, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}

		sub := filepath.Join(moduleRoot, "internal", "sub")
		if err := os.MkdirAll(sub, 0750); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile("", sub); got != path {
			t.Errorf("got %q, want %q", got, path)
		}
	})

	t.Run("does not search above the module root", func(t *testing.T) {
		t.Parallel()

		outer := t.TempDir()
		if err := os.WriteFile(filepath.Join(outer, DefaultConfigFile), []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}

		moduleRoot := filepath.Join(outer, "proj")
		if err := os.MkdirAll(moduleRoot, 0750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(moduleRoot, "go.mod"), []byte("module m\n"), 0600); err != nil {
			t.Fatal(err)
		}

		// The config in outer must be ignored; the home fallback may still
		// resolve on machines that keep one there, so only assert it is not
		// the outer file.
		if got := FindConfigFile("", moduleRoot); got == filepath.Join(outer, DefaultConfigFile) {
			t.Errorf("picked up config above the module root: %q", got)
		}
	})
}

// TestToolsForMode tests tier filtering and overrides.
func TestToolsForMode(t *testing.T) {
	t.Parallel()

	t.Run("quick runs core only", func(t *testing.T) {
		t.Parallel()

		f := NewFile()
		for _, spec := range f.ToolsForMode(model.ModeQuick) {
			if spec.Tier != model.TierCore {
				t.Errorf("quick mode included %s (%s)", spec.Name, spec.Tier)
			}
		}
	})

	t.Run("default excludes experimental", func(t *testing.T) {
		t.Parallel()

		f := NewFile()
		for _, spec := range f.ToolsForMode(model.ModeDefault) {
			if spec.Tier == model.TierExperimental {
				t.Errorf("default mode included experimental tool %s", spec.Name)
			}
		}
	})

	t.Run("full runs everything enabled", func(t *testing.T) {
		t.Parallel()

		f := NewFile()
		got := len(f.ToolsForMode(model.ModeFull))
		want := len(f.Registry())
		if got != want {
			t.Errorf("full mode ran %d tools, want %d", got, want)
		}
	})

	t.Run("tier override promotes tool into quick", func(t *testing.T) {
		t.Parallel()

		f := NewFile()
		f.Tools["ascii-check"] = ToolSetting{Tier: "core"}
		found := false
		for _, spec := range f.ToolsForMode(model.ModeQuick) {
			if spec.Name == "ascii-check" {
				found = true
			}
		}
		if !found {
			t.Error("promoted tool missing from quick mode")
		}
	})

	t.Run("disabled tool never runs", func(t *testing.T) {
		t.Parallel()

		f := NewFile()
		disabled := false
		f.Tools["legacy-scan"] = ToolSetting{Enabled: &disabled}
		for _, spec := range f.ToolsForMode(model.ModeFull) {
			if spec.Name == "legacy-scan" {
				t.Error("disabled tool still scheduled")
			}
		}
	})
}

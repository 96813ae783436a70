package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/devaudit/devaudit/internal/config"
	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/project"
)

// legacyFileExts are the file types the legacy scanner reads.
var legacyFileExts = []string{".go", ".md", ".yaml", ".yml", ".txt", ".html"}

// LegacyScan searches the project for configured legacy reference
// patterns. Patterns carrying a replacement can be rewritten with Fix.
type LegacyScan struct {
	tier     model.Tier
	patterns []legacyPattern
	logger   *slog.Logger
}

// legacyPattern is a compiled configuration entry.
type legacyPattern struct {
	re          *regexp.Regexp
	replacement string
	severity    model.Severity
	note        string
}

// NewLegacyScan creates the legacy-scan tool from configured patterns.
func NewLegacyScan(tier model.Tier, patterns []config.LegacyPattern, logger *slog.Logger) (*LegacyScan, error) {
	if logger == nil {
		logger = slog.Default()
	}
	compiled := make([]legacyPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("legacy pattern %q: %w", p.Pattern, err)
		}
		severity, err := model.ParseSeverity(p.Severity, model.SeverityMedium)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, legacyPattern{
			re:          re,
			replacement: p.Replacement,
			severity:    severity,
			note:        p.Note,
		})
	}
	return &LegacyScan{tier: tier, patterns: compiled, logger: logger}, nil
}

// Name implements runner.Tool.
func (t *LegacyScan) Name() string { return "legacy-scan" }

// Tier implements runner.Tool.
func (t *LegacyScan) Tier() model.Tier { return t.tier }

// Dependencies implements runner.Tool.
func (t *LegacyScan) Dependencies() []string { return nil }

// Run scans all text files line by line for legacy patterns.
func (t *LegacyScan) Run(ctx context.Context, proj *project.Project) (*model.ToolResult, error) {
	result := model.NewToolResult(t.Name(), t.tier)
	if len(t.patterns) == 0 {
		result.Note = "no legacy patterns configured"
		return result, nil
	}

	files, err := t.targetFiles(proj)
	if err != nil {
		return nil, err
	}

	matches := 0
	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		data, err := os.ReadFile(path) //nolint:gosec // Paths come from the project walker
		if err != nil {
			continue
		}
		rel := proj.Rel(path)

		for i, line := range strings.Split(string(data), "\n") {
			for _, p := range t.patterns {
				for _, m := range p.re.FindAllString(line, -1) {
					matches++
					f := model.NewFinding(t.Name(), "legacy_reference", rel, i+1)
					f.Value = m
					f.Description = p.note
					if p.replacement != "" {
						f.Recommendation = fmt.Sprintf("Replace with %q (auto-fixable via legacy --fix).", p.replacement)
					}
					result.AddFinding(f.WithSeverity(p.severity))
				}
			}
		}
	}

	t.logger.Debug("legacy scan complete",
		"files", len(files),
		"matches", matches,
	)

	result.SetDetail("files_scanned", len(files))
	result.SetDetail("patterns", len(t.patterns))
	return result, nil
}

// Fix rewrites all fixable legacy references in place and returns the
// number of files changed and total replacements made. Patterns without a
// replacement are left untouched. When dryRun is true, files are not
// written but the counts reflect what a real run would change.
func (t *LegacyScan) Fix(ctx context.Context, proj *project.Project, dryRun bool) (filesChanged, replacements int, err error) {
	files, err := t.targetFiles(proj)
	if err != nil {
		return 0, 0, err
	}
	return t.FixFiles(ctx, proj, files, dryRun)
}

// FixFiles rewrites fixable legacy references in the given files only.
// doc-fix uses this to restrict rewriting to documentation files.
func (t *LegacyScan) FixFiles(ctx context.Context, proj *project.Project, files []string, dryRun bool) (filesChanged, replacements int, err error) {
	for _, path := range files {
		select {
		case <-ctx.Done():
			return filesChanged, replacements, ctx.Err()
		default:
		}

		data, err := os.ReadFile(path) //nolint:gosec // Paths come from the project walker
		if err != nil {
			continue
		}
		original := string(data)
		fixed := original
		fileReplacements := 0

		for _, p := range t.patterns {
			if p.replacement == "" {
				continue
			}
			fileReplacements += len(p.re.FindAllString(fixed, -1))
			fixed = p.re.ReplaceAllString(fixed, p.replacement)
		}

		if fixed == original {
			continue
		}
		filesChanged++
		replacements += fileReplacements

		if dryRun {
			t.logger.Info("would rewrite legacy references",
				"file", path,
				"replacements", fileReplacements,
			)
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return filesChanged, replacements, err
		}
		if err := os.WriteFile(path, []byte(fixed), info.Mode().Perm()); err != nil {
			return filesChanged, replacements, fmt.Errorf("failed to rewrite %s: %w", proj.Rel(path), err)
		}
		t.logger.Info("rewrote legacy references",
			"file", path,
			"replacements", fileReplacements,
		)
	}

	return filesChanged, replacements, nil
}

// targetFiles returns the text files the scanner operates on, excluding
// the devaudit configuration itself: the patterns defined there are
// configuration, not legacy usage.
func (t *LegacyScan) targetFiles(proj *project.Project) ([]string, error) {
	files, err := proj.TextFiles(legacyFileExts...)
	if err != nil {
		return nil, err
	}
	out := files[:0]
	for _, f := range files {
		if filepath.Base(f) == config.DefaultConfigFile {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

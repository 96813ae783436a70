package analyzer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/devaudit/devaudit/internal/config"
	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/project"
)

// Coverage aggregates a Go cover profile into per-package statement
// coverage and checks it against configured thresholds.
type Coverage struct {
	tier        model.Tier
	profile     string
	totalMin    float64
	packageMins map[string]float64
	logger      *slog.Logger
}

// PackageCoverage is the aggregated coverage of one package.
type PackageCoverage struct {
	// Package is the directory part of the file paths in the profile.
	Package string `json:"package"`

	// Statements is the total number of statements.
	Statements int `json:"statements"`

	// Covered is the number of statements with a non-zero execution count.
	Covered int `json:"covered"`

	// Percent is Covered/Statements in percent, 100 for empty packages.
	Percent float64 `json:"percent"`
}

// NewCoverage creates the coverage tool from configuration.
func NewCoverage(tier model.Tier, cfg config.CoverageConfig, logger *slog.Logger) *Coverage {
	if logger == nil {
		logger = slog.Default()
	}
	profile := cfg.Profile
	if profile == "" {
		profile = config.DefaultCoverageProfile
	}
	return &Coverage{
		tier:        tier,
		profile:     profile,
		totalMin:    cfg.TotalThreshold,
		packageMins: cfg.PackageThresholds,
		logger:      logger,
	}
}

// Name implements runner.Tool.
func (t *Coverage) Name() string { return "coverage" }

// Tier implements runner.Tool.
func (t *Coverage) Tier() model.Tier { return t.tier }

// Dependencies implements runner.Tool.
func (t *Coverage) Dependencies() []string { return nil }

// Run parses the cover profile and checks thresholds. A missing profile is
// not an error during a full audit: the result carries a note instead so
// projects without coverage artifacts still get the other tools' findings.
func (t *Coverage) Run(ctx context.Context, proj *project.Project) (*model.ToolResult, error) {
	result := model.NewToolResult(t.Name(), t.tier)

	profilePath := proj.Abs(t.profile)
	f, err := os.Open(profilePath) //nolint:gosec // Profile path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			result.Note = fmt.Sprintf("no cover profile at %s; run go test -coverprofile=%s ./...", t.profile, t.profile)
			result.SetDetail("profile_missing", true)
			return result, nil
		}
		return nil, fmt.Errorf("failed to open cover profile: %w", err)
	}
	defer f.Close()

	select {
	case <-ctx.Done():
		return result, ctx.Err()
	default:
	}

	packages, err := parseCoverProfile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cover profile %s: %w", t.profile, err)
	}

	totalStmts, totalCovered := 0, 0
	for _, pc := range packages {
		totalStmts += pc.Statements
		totalCovered += pc.Covered
	}
	totalPercent := 100.0
	if totalStmts > 0 {
		totalPercent = 100 * float64(totalCovered) / float64(totalStmts)
	}

	t.logger.Debug("coverage aggregated",
		"packages", len(packages),
		"total_percent", fmt.Sprintf("%.1f", totalPercent),
	)

	if t.totalMin > 0 && totalPercent < t.totalMin {
		f := model.NewFinding(t.Name(), "coverage_below_global_threshold", "", 0)
		f.Value = fmt.Sprintf("%.1f%% < %.1f%%", totalPercent, t.totalMin)
		result.AddFinding(f)
	}

	for _, pc := range packages {
		min, ok := t.thresholdFor(pc.Package)
		if !ok || pc.Percent >= min {
			continue
		}
		f := model.NewFinding(t.Name(), "coverage_below_package_threshold", pc.Package, 0)
		f.Value = fmt.Sprintf("%.1f%% < %.1f%%", pc.Percent, min)
		result.AddFinding(f)
	}

	result.SetDetail("total_percent", totalPercent)
	result.SetDetail("total_statements", totalStmts)
	result.SetDetail("covered_statements", totalCovered)
	result.SetDetail("packages", packages)
	return result, nil
}

// thresholdFor returns the configured floor for a package. Configured keys
// match by import-path suffix so thresholds survive module renames.
func (t *Coverage) thresholdFor(pkg string) (float64, bool) {
	for suffix, min := range t.packageMins {
		if pkg == suffix || strings.HasSuffix(pkg, "/"+suffix) {
			return min, true
		}
	}
	return 0, false
}

// parseCoverProfile parses the textual cover profile format emitted by
// go test -coverprofile: a "mode:" line followed by one line per block,
//
//	name.go:line.col,line.col numStatements count
//
// and aggregates blocks per package directory.
func parseCoverProfile(r io.Reader) ([]PackageCoverage, error) {
	scanner := bufio.NewScanner(r)
	byPkg := make(map[string]*PackageCoverage)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if lineNo == 1 {
			if !strings.HasPrefix(line, "mode:") {
				return nil, fmt.Errorf("line 1: missing mode header")
			}
			continue
		}

		file, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: malformed block %q", lineNo, line)
		}
		fields := strings.Fields(rest)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields after position, got %d", lineNo, len(fields))
		}
		stmts, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad statement count: %w", lineNo, err)
		}
		count, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad execution count: %w", lineNo, err)
		}

		pkg := path.Dir(file)
		pc, ok := byPkg[pkg]
		if !ok {
			pc = &PackageCoverage{Package: pkg}
			byPkg[pkg] = pc
		}
		pc.Statements += stmts
		if count > 0 {
			pc.Covered += stmts
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	out := make([]PackageCoverage, 0, len(byPkg))
	for _, pc := range byPkg {
		if pc.Statements > 0 {
			pc.Percent = 100 * float64(pc.Covered) / float64(pc.Statements)
		} else {
			pc.Percent = 100
		}
		out = append(out, *pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out, nil
}

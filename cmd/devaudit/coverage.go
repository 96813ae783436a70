package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devaudit/devaudit/internal/analyzer"
	"github.com/devaudit/devaudit/internal/history"
	"github.com/devaudit/devaudit/internal/model"
)

// NewCoverageCmd creates the coverage command.
func NewCoverageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Aggregate a cover profile and check thresholds",
		Long: `Coverage parses the configured go test cover profile, aggregates
statement coverage per package and in total, checks the configured
thresholds, and records a snapshot in the history database.

Unlike a full audit, a missing cover profile is an error here: the
command was asked for coverage specifically.`,
		Args: cobra.NoArgs,
		RunE: runCoverageCmd,
	}
}

// runCoverageCmd executes the coverage command.
func runCoverageCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	tool := analyzer.NewCoverage(model.TierSupporting, cfg.File.Coverage, logger)
	result, err := tool.Run(ctx, newProject(cfg))
	if err != nil {
		return err
	}
	if missing, ok := result.Details["profile_missing"].(bool); ok && missing {
		return fmt.Errorf("%w: %s", errAuditFailed, result.Note)
	}

	out := cmd.OutOrStdout()
	totalPercent, _ := result.Details["total_percent"].(float64)
	packages, _ := result.Details["packages"].([]analyzer.PackageCoverage)

	fmt.Fprintf(out, "Total coverage: %s\n\n", coloredPercent(totalPercent, cfg.File.Coverage.TotalThreshold))
	for _, pc := range packages {
		fmt.Fprintf(out, "  %6.1f%%  %s (%d/%d statements)\n",
			pc.Percent, pc.Package, pc.Covered, pc.Statements)
	}
	if len(packages) > 0 {
		fmt.Fprintln(out)
	}

	for _, f := range result.Findings {
		target := f.File
		if target == "" {
			target = "total"
		}
		fmt.Fprintf(out, "%s %s: %s\n", color.YellowString("below threshold"), target, f.Value)
	}

	if cfg.SaveToDB {
		saveCoverageSnapshot(cfg.DBDir, cfg.ProjectRoot, totalPercent, packages, cfg.File.Retention(), logger)
	}

	if len(result.Findings) > 0 {
		return fmt.Errorf("%w: %d coverage threshold violation(s)", errAuditFailed, len(result.Findings))
	}
	return nil
}

// coloredPercent renders the total relative to its threshold.
func coloredPercent(percent, threshold float64) string {
	s := fmt.Sprintf("%.1f%%", percent)
	if threshold > 0 && percent < threshold {
		return color.RedString("%s (threshold %.1f%%)", s, threshold)
	}
	return color.GreenString(s)
}

// saveCoverageSnapshot records the measurement, rotating old snapshots.
// Persistence problems are logged, not fatal.
func saveCoverageSnapshot(dbDir, projectRoot string, totalPercent float64, packages []analyzer.PackageCoverage, retention int, logger *slog.Logger) {
	store, err := history.Open(dbDir, history.DefaultOptions())
	if err != nil {
		logger.Error("failed to open history store", "dir", dbDir, "error", err)
		return
	}
	defer store.Close()

	if err := store.SaveCoverageSnapshot(context.Background(), projectRoot, totalPercent, packages, retention); err != nil {
		logger.Error("failed to save coverage snapshot", "error", err)
		return
	}
	logger.Debug("coverage snapshot saved", "total_percent", totalPercent)
}

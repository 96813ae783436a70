package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/devaudit/devaudit/internal/analyzer"
	"github.com/devaudit/devaudit/internal/config"
	"github.com/devaudit/devaudit/internal/history"
	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/report"
	"github.com/devaudit/devaudit/internal/runner"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run the audit tool suite against a Go project",
		Long: `Audit runs the configured analysis tools over the project tree.

By default the core and supporting tiers run. --quick restricts the run to
core tools; --full adds the experimental tier. Tools execute in dependency
groups, in parallel inside each group.

The command exits 1 when findings at or above the configured failure
severity exist, or when a tool fails to complete.

Examples:
  # Default audit in the nearest Go module
  devaudit audit

  # Core tools only, JSON report to a file
  devaudit audit --quick --json --output report.json

  # Everything, eight tools at a time
  devaudit audit --full --jobs 8`,
		Args: cobra.NoArgs,
		RunE: runAuditCmd,
	}

	cmd.Flags().Bool("quick", false,
		"Run core-tier tools only (mutually exclusive with --full)")
	cmd.Flags().Bool("full", false,
		"Run all tiers including experimental (mutually exclusive with --quick)")
	cmd.Flags().IntP("jobs", "n", config.DefaultJobs,
		"Maximum number of tools running concurrently inside a dependency group")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildAuditConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	auditReport, err := runAudit(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := outputReport(cfg, auditReport); err != nil {
		return err
	}

	saveRun(cfg, auditReport, logger)

	failThreshold := cfg.File.FailThreshold()
	if n := auditReport.CountAtOrAbove(failThreshold); n > 0 {
		return fmt.Errorf("%w: %d finding(s) at or above %s", errAuditFailed, n, failThreshold)
	}
	if auditReport.Status() == model.StatusError {
		return fmt.Errorf("%w: one or more tools did not complete", errAuditFailed)
	}
	return nil
}

// buildAuditConfig extends the shared configuration with audit flags.
func buildAuditConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	quick, err := cmd.Flags().GetBool("quick")
	if err != nil {
		return nil, err
	}
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return nil, err
	}
	switch {
	case quick && full:
		return nil, errors.New("invalid argument: --quick and --full are mutually exclusive")
	case quick:
		cfg.Mode = model.ModeQuick
	case full:
		cfg.Mode = model.ModeFull
	}

	cfg.Jobs, err = cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// runAudit builds the tool set for the configured mode and executes it.
// Context cancellation yields a partial report marked Cancelled rather
// than an error, so interrupted runs still print what they found.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.AuditReport, error) {
	proj := newProject(cfg)

	specs := cfg.File.ToolsForMode(cfg.Mode)
	tools, err := analyzer.ForSpecs(specs, cfg.File, logger)
	if err != nil {
		return nil, err
	}

	auditReport := model.NewAuditReport(cfg.ProjectRoot, cfg.Mode)

	run := runner.New(runner.WithLogger(logger), runner.WithJobs(cfg.Jobs))
	results, err := run.Run(ctx, proj, tools)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return nil, err
		}
		auditReport.Cancelled = true
	}

	for _, res := range results {
		auditReport.AddResult(res)
	}
	auditReport.Duration = time.Since(auditReport.StartedAt)

	return auditReport, nil
}

// outputReport writes the report in the requested format to the configured
// destination.
func outputReport(cfg *config.Config, auditReport *model.AuditReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports can expose internal paths and policy violations, so
		// files are owner-readable only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, generatedBy(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		docPath := cfg.ReportFile
		if docPath == "" {
			docPath = "audit-report.md"
		}
		writer = report.NewMarkdownWriter(output, generatedBy(), report.WithDocPath(docPath))
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(auditReport)
	return err
}

// saveRun records the run in the history store. Persistence problems are
// logged, not fatal: the audit result already reached the user.
func saveRun(cfg *config.Config, auditReport *model.AuditReport, logger *slog.Logger) {
	if !cfg.SaveToDB {
		return
	}

	store, err := history.Open(cfg.DBDir, history.DefaultOptions())
	if err != nil {
		logger.Error("failed to open history store", "dir", cfg.DBDir, "error", err)
		return
	}
	defer store.Close()

	// The signal context may already be cancelled; history writes still
	// belong to this run.
	runID, err := store.SaveRun(context.Background(), auditReport, cfg.File.Retention())
	if err != nil {
		logger.Error("failed to save audit run", "error", err)
		return
	}
	logger.Debug("audit run saved", "run_id", runID)
}

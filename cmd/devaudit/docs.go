package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/devaudit/devaudit/internal/analyzer"
	"github.com/devaudit/devaudit/internal/config"
	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/report"
	"github.com/devaudit/devaudit/internal/runner"
)

// NewDocsCmd creates the docs command.
func NewDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Run the documentation tools (doc-lint and doc-sync)",
		Long: `Docs checks documentation health: markdown structure, intra-repo links,
metadata headers on generated documents, and freshness of generated
documents against their declared sources.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToolSubset(cmd, "doc-lint", "doc-sync")
		},
	}
}

// NewDocSyncCmd creates the doc-sync command.
func NewDocSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doc-sync",
		Short: "Check generated documentation freshness",
		Long: `Doc-sync recomputes the source digest of every generated document and
reports documents whose sources changed since the last generation, and
documents whose declared sources no longer exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToolSubset(cmd, "doc-sync")
		},
	}
}

// NewDocFixCmd creates the doc-fix command.
func NewDocFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc-fix",
		Short: "Apply safe automatic documentation fixes",
		Long: `Doc-fix applies mechanically safe fixes to documentation files:
the metadata header of stale generated documents is refreshed (source
digest and Last Generated timestamp), and legacy references with a
configured replacement are rewritten in place. Documents with missing
sources are reported but not modified.

With --dry-run, the files that would change are listed without writing.`,
		Args: cobra.NoArgs,
		RunE: runDocFixCmd,
	}

	cmd.Flags().Bool("dry-run", false, "List files that would change without writing")

	return cmd
}

// runDocFixCmd executes the doc-fix command.
func runDocFixCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	proj := newProject(cfg)
	files, err := proj.DocFiles()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	now := time.Now()
	changed := 0
	skipped := 0

	for _, path := range files {
		data, err := os.ReadFile(path) //nolint:gosec // Paths come from the project walker
		if err != nil {
			continue
		}
		if !model.IsGeneratedDoc(string(data)) {
			continue
		}

		rewritten, err := analyzer.RefreshHeader(proj, path, now, dryRun)
		if err != nil {
			skipped++
			logger.Warn("cannot refresh document", "file", proj.Rel(path), "error", err)
			continue
		}
		if !rewritten {
			continue
		}
		changed++
		if dryRun {
			fmt.Fprintf(out, "would refresh %s\n", proj.Rel(path))
		} else {
			fmt.Fprintf(out, "refreshed %s\n", proj.Rel(path))
		}
	}

	if len(cfg.File.Legacy) > 0 {
		legacyTool, err := analyzer.NewLegacyScan(model.TierCore, cfg.File.Legacy, logger)
		if err != nil {
			return err
		}
		docsRewritten, rewrites, err := legacyTool.FixFiles(ctx, proj, files, dryRun)
		if err != nil {
			return err
		}
		if rewrites > 0 {
			if dryRun {
				fmt.Fprintf(out, "would rewrite %d legacy reference(s) in %d document(s)\n", rewrites, docsRewritten)
			} else {
				fmt.Fprintf(out, "rewrote %d legacy reference(s) in %d document(s)\n", rewrites, docsRewritten)
			}
			changed += docsRewritten
		}
	}

	if changed == 0 {
		fmt.Fprintln(out, "All generated documents are up to date.")
	} else if dryRun {
		fmt.Fprintf(out, "%d document(s) would be refreshed.\n", changed)
	} else {
		fmt.Fprintf(out, "%d document(s) refreshed.\n", changed)
	}
	if skipped > 0 {
		fmt.Fprintf(out, "%d document(s) skipped (see log).\n", skipped)
	}

	return nil
}

// runToolSubset runs the named tools and prints a console report. Findings
// at or above the failure threshold make the command exit non-zero, same
// as a full audit.
func runToolSubset(cmd *cobra.Command, toolNames ...string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	selected := make([]config.ToolSpec, 0, len(toolNames))
	for _, name := range toolNames {
		for _, spec := range cfg.File.Registry() {
			if spec.Name == name {
				selected = append(selected, spec)
			}
		}
	}

	tools, err := analyzer.ForSpecs(selected, cfg.File, logger)
	if err != nil {
		return err
	}

	auditReport := model.NewAuditReport(cfg.ProjectRoot, cfg.Mode)
	results, err := run(ctx, cfg, tools, logger)
	if err != nil {
		return err
	}
	for _, res := range results {
		auditReport.AddResult(res)
	}
	auditReport.Duration = time.Since(auditReport.StartedAt)

	writer := report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(cfg.Verbose))
	if _, err := writer.Write(auditReport); err != nil {
		return err
	}

	failThreshold := cfg.File.FailThreshold()
	if n := auditReport.CountAtOrAbove(failThreshold); n > 0 {
		return fmt.Errorf("%w: %d finding(s) at or above %s", errAuditFailed, n, failThreshold)
	}
	if auditReport.Status() == model.StatusError {
		return fmt.Errorf("%w: one or more tools did not complete", errAuditFailed)
	}
	return nil
}

// run executes tools through the runner with the configured concurrency.
func run(ctx context.Context, cfg *config.Config, tools []runner.Tool, logger *slog.Logger) ([]*model.ToolResult, error) {
	r := runner.New(runner.WithLogger(logger), runner.WithJobs(cfg.Jobs))
	return r.Run(ctx, newProject(cfg), tools)
}

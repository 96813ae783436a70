package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/devaudit/devaudit/internal/analyzer"
	"github.com/devaudit/devaudit/internal/model"
)

// NewLegacyCmd creates the legacy command.
func NewLegacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legacy",
		Short: "Scan for configured legacy references",
		Long: `Legacy scans source and documentation files for the legacy patterns
configured under the "legacy" key of .devaudit.yaml.

With --fix, matches whose pattern carries a replacement are rewritten in
place. Patterns without a replacement are reported only.`,
		Args: cobra.NoArgs,
		RunE: runLegacyCmd,
	}

	cmd.Flags().Bool("fix", false, "Rewrite matches that have a configured replacement")

	return cmd
}

// runLegacyCmd executes the legacy command.
func runLegacyCmd(cmd *cobra.Command, _ []string) error {
	fix, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return err
	}
	if !fix {
		return runToolSubset(cmd, "legacy-scan")
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	tool, err := analyzer.NewLegacyScan(model.TierCore, cfg.File.Legacy, logger)
	if err != nil {
		return err
	}

	filesChanged, replacements, err := tool.Fix(ctx, newProject(cfg), false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if replacements == 0 {
		fmt.Fprintln(out, "No legacy references with configured replacements found.")
		return nil
	}
	fmt.Fprintf(out, "Replaced %d reference(s) in %d file(s).\n", replacements, filesChanged)
	return nil
}

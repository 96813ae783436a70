package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devaudit/devaudit/internal/history"
	"github.com/devaudit/devaudit/internal/model"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent audit run and the delta to the one before",
		Long: `Status reads the history database and prints the latest audit run for
the current project, plus how its totals moved against the previous run.`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.DBDir, history.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no audit history yet (run `devaudit audit` first): %w", err)
	}
	defer store.Close()

	runs, err := store.LatestRuns(context.Background(), cfg.ProjectRoot, 2)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No audit runs recorded for %s yet.\n", cfg.ProjectRoot)
		return nil
	}

	out := cmd.OutOrStdout()
	latest := runs[0]

	fmt.Fprintf(out, "Project:  %s\n", latest.ProjectRoot)
	fmt.Fprintf(out, "Last run: %s (%s mode, %s)\n",
		latest.StartedAt.Format("2006-01-02 15:04:05"),
		latest.Mode,
		latest.Duration.Round(time.Millisecond),
	)
	fmt.Fprintf(out, "Status:   %s\n", coloredStatus(latest.Status))
	fmt.Fprintf(out, "Issues:   %d in %d files\n", latest.TotalIssues, latest.FilesAffected)

	if len(runs) > 1 {
		previous := runs[1]
		fmt.Fprintf(out, "\nSince %s:\n", previous.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "  issues: %s\n", coloredDelta(latest.TotalIssues-previous.TotalIssues))
		fmt.Fprintf(out, "  files:  %s\n", coloredDelta(latest.FilesAffected-previous.FilesAffected))
	} else {
		fmt.Fprintln(out, "\nNo previous run to compare against.")
	}

	return nil
}

// coloredStatus renders a run status with color when attached to a TTY.
func coloredStatus(status string) string {
	switch status {
	case model.StatusError:
		return color.RedString(status)
	case model.StatusIssues:
		return color.YellowString(status)
	default:
		return color.GreenString(status)
	}
}

// coloredDelta renders a count change: red when it grew, green when it
// shrank.
func coloredDelta(delta int) string {
	switch {
	case delta > 0:
		return color.RedString("+%d", delta)
	case delta < 0:
		return color.GreenString("%d", delta)
	default:
		return "±0"
	}
}

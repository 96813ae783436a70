// Package main provides the entry point for the devaudit CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devaudit/devaudit/internal/config"
	devlog "github.com/devaudit/devaudit/internal/log"
	"github.com/devaudit/devaudit/internal/project"
)

// Exit codes. Audit failures and usage mistakes are distinct so CI
// pipelines can tell a red audit from a broken invocation.
const (
	exitOK    = 0
	exitAudit = 1
	exitUsage = 2
)

// errAuditFailed signals findings at or above the failure threshold or a
// tool error. It maps to exitAudit rather than exitUsage.
var errAuditFailed = errors.New("audit failed")

// NewRootCmd creates the root command for devaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devaudit",
		Short: "Audit suite for Go projects",
		Long: `devaudit runs a set of static analysis tools over a Go project tree:
function inventory, import policy, legacy references, documentation health,
coverage thresholds, and character hygiene.

Tools are tiered (core, supporting, experimental) and scheduled in
dependency order. Results aggregate into human-readable, JSON, or Markdown
reports, and every run is recorded in a local history database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("project-root", "",
		"Project root to audit (default: nearest go.mod above the working directory)")
	cmd.PersistentFlags().String("config-path", "",
		"Configuration file path (default: .devaudit.yaml in project root or home directory)")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewDocsCmd())
	cmd.AddCommand(NewDocSyncCmd())
	cmd.AddCommand(NewDocFixCmd())
	cmd.AddCommand(NewLegacyCmd())
	cmd.AddCommand(NewCoverageCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(os.Stderr, err)
	if isUsageError(err) {
		return exitUsage
	}
	return exitAudit
}

// isUsageError reports whether the error came from a bad invocation rather
// than a failed audit. Cobra does not type its parse errors; the prefixes
// below cover unknown commands, unknown flags, and argument count mismatches.
func isUsageError(err error) bool {
	if errors.Is(err, errAuditFailed) {
		return false
	}
	if errors.Is(err, config.ErrConfigNotFound) {
		return true
	}
	// Mutually exclusive report flags are an invocation mistake, same as
	// --quick with --full.
	if errors.Is(err, config.ErrConflictingReportFormats) {
		return true
	}
	msg := err.Error()
	for _, prefix := range []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"invalid argument",
		"accepts",
		"required flag",
		"flag needs an argument",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// buildConfig assembles the effective configuration from persistent flags
// and the project configuration file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	explicitRoot, err := cmd.Flags().GetString("project-root")
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg.ProjectRoot, err = project.FindRoot(explicitRoot, cwd)
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config-path")
	if err != nil {
		return nil, err
	}
	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file, it must exist.
	// Otherwise a missing file silently means defaults.
	explicitConfig := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath, cfg.ProjectRoot)
	if configPath != "" {
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfig {
		return nil, fmt.Errorf("configuration file %s: %w", cfg.ConfigFilePath, config.ErrConfigNotFound)
	}

	if cfg.File.DBDir != "" {
		cfg.DBDir = cfg.File.DBDir
		if !filepath.IsAbs(cfg.DBDir) {
			cfg.DBDir = filepath.Join(cfg.ProjectRoot, cfg.DBDir)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity. Absolute
// project paths in log attributes are shown project-relative.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(devlog.NewRelPathHandler(handler, cfg.ProjectRoot))
}

// newProject creates the project walker from the effective configuration.
func newProject(cfg *config.Config) *project.Project {
	return project.New(cfg.ProjectRoot, cfg.File.IgnoreNames(), cfg.File.DocDirs())
}

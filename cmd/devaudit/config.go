package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/devaudit/devaudit/internal/config"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Config resolves the project root and configuration file the same way
the audit commands do and prints the effective configuration as YAML.

With --validate, only a confirmation is printed on success; configuration
errors are reported and exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: runConfigCmd,
	}

	cmd.Flags().Bool("validate", false, "Only validate the configuration, print nothing on success")

	return cmd
}

// runConfigCmd executes the config command.
func runConfigCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	validateOnly, err := cmd.Flags().GetBool("validate")
	if err != nil {
		return err
	}
	if validateOnly {
		fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# project root: %s\n", cfg.ProjectRoot)
	if path := config.FindConfigFile(cfg.ConfigFilePath, cfg.ProjectRoot); path != "" {
		fmt.Fprintf(out, "# config file: %s\n", path)
	} else {
		fmt.Fprintln(out, "# config file: (defaults, no file found)")
	}

	data, err := yaml.Marshal(resolvedFile(cfg.File))
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// resolvedFile returns a copy of the file config with defaults filled in,
// so the printed YAML shows effective values rather than zero values.
func resolvedFile(f *config.File) *config.File {
	resolved := *f
	resolved.MaxFunctionLines = f.MaxFuncLines()
	resolved.HistoryRetention = f.Retention()
	resolved.Ignore = f.IgnoreNames()
	resolved.DocsDirs = f.DocDirs()
	return &resolved
}

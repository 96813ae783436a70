package analyzer

import (
	"fmt"
	"log/slog"

	"github.com/devaudit/devaudit/internal/config"
	"github.com/devaudit/devaudit/internal/runner"
)

// ForSpec constructs the tool named by a registry entry.
// The config file supplies tool parameters (patterns, thresholds, limits).
func ForSpec(spec config.ToolSpec, file *config.File, logger *slog.Logger) (runner.Tool, error) {
	switch spec.Name {
	case "function-registry":
		return NewFunctionRegistry(spec.Tier, file.MaxFuncLines(), logger), nil
	case "import-audit":
		return NewImportAudit(spec.Tier, file.DisallowedImports, logger)
	case "legacy-scan":
		return NewLegacyScan(spec.Tier, file.Legacy, logger)
	case "doc-lint":
		return NewDocLint(spec.Tier, logger), nil
	case "doc-sync":
		return NewDocSync(spec.Tier, logger), nil
	case "coverage":
		return NewCoverage(spec.Tier, file.Coverage, logger), nil
	case "ascii-check":
		return NewASCIICheck(spec.Tier, logger), nil
	default:
		return nil, fmt.Errorf("unknown tool %q", spec.Name)
	}
}

// ForSpecs constructs all tools for the given registry entries.
func ForSpecs(specs []config.ToolSpec, file *config.File, logger *slog.Logger) ([]runner.Tool, error) {
	tools := make([]runner.Tool, 0, len(specs))
	for _, spec := range specs {
		tool, err := ForSpec(spec, file, logger)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

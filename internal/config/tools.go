package config

import (
	"github.com/devaudit/devaudit/internal/model"
)

// ToolSpec is one entry in the tool registry: the tool's name, its default
// tier, and the tools whose results it depends on.
type ToolSpec struct {
	// Name is the tool name as used on the CLI and in reports.
	Name string

	// Tier is the tool's effective tier after config overrides.
	Tier model.Tier

	// DependsOn lists tools that must run in an earlier group.
	DependsOn []string

	// Enabled is false when the configuration disabled the tool.
	Enabled bool
}

// defaultRegistry lists all known tools with their default classification.
// Order here is the presentation order in reports.
var defaultRegistry = []ToolSpec{
	{Name: "function-registry", Tier: model.TierCore, Enabled: true},
	{Name: "import-audit", Tier: model.TierCore, DependsOn: []string{"function-registry"}, Enabled: true},
	{Name: "legacy-scan", Tier: model.TierCore, Enabled: true},
	{Name: "doc-lint", Tier: model.TierSupporting, Enabled: true},
	{Name: "doc-sync", Tier: model.TierSupporting, DependsOn: []string{"doc-lint"}, Enabled: true},
	{Name: "coverage", Tier: model.TierSupporting, Enabled: true},
	{Name: "ascii-check", Tier: model.TierExperimental, Enabled: true},
}

// Registry returns the tool registry with configuration overrides applied.
// Unknown tool names in the configuration are ignored; Validate reports
// tier typos, and an unknown name is most likely a tool from a newer
// devaudit version.
func (f *File) Registry() []ToolSpec {
	specs := make([]ToolSpec, len(defaultRegistry))
	copy(specs, defaultRegistry)

	for i := range specs {
		setting, ok := f.Tools[specs[i].Name]
		if !ok {
			continue
		}
		if tier, err := model.ParseTier(setting.Tier, specs[i].Tier); err == nil {
			specs[i].Tier = tier
		}
		if setting.Enabled != nil {
			specs[i].Enabled = *setting.Enabled
		}
	}
	return specs
}

// ToolsForMode filters the registry down to the tools a mode executes.
// Quick runs core only, default adds supporting, full adds experimental.
// Disabled tools never run regardless of mode.
func (f *File) ToolsForMode(mode string) []ToolSpec {
	var out []ToolSpec
	for _, spec := range f.Registry() {
		if !spec.Enabled {
			continue
		}
		switch mode {
		case model.ModeQuick:
			if spec.Tier != model.TierCore {
				continue
			}
		case model.ModeFull:
			// All tiers.
		default:
			if spec.Tier == model.TierExperimental {
				continue
			}
		}
		out = append(out, spec)
	}
	return out
}

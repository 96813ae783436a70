package model

import "fmt"

// Tier classifies a tool by reliability and risk.
// Core tools are stable and always safe to run; supporting tools are
// reliable but slower or dependent on project conventions; experimental
// tools may produce noisy results and only run with --full.
//
// Design decision: Tier is a string type rather than an iota enum because
// tiers appear verbatim in configuration files and reports, and the set is
// small enough that comparison cost is irrelevant.
type Tier string

const (
	// TierCore is the tier for stable, low-noise tools that run on every audit.
	TierCore Tier = "core"

	// TierSupporting is the tier for reliable tools skipped by --quick.
	TierSupporting Tier = "supporting"

	// TierExperimental is the tier for noisy or unproven tools; only --full runs them.
	TierExperimental Tier = "experimental"
)

// ParseTier validates a configuration string as a Tier.
// An empty string returns the provided fallback.
func ParseTier(s string, fallback Tier) (Tier, error) {
	switch Tier(s) {
	case "":
		return fallback, nil
	case TierCore, TierSupporting, TierExperimental:
		return Tier(s), nil
	default:
		return fallback, fmt.Errorf("unknown tier %q (expected core, supporting, or experimental)", s)
	}
}

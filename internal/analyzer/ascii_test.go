package analyzer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/devaudit/devaudit/internal/model"
)

// TestASCIICheck tests character-level hygiene checks.
func TestASCIICheck(t *testing.T) {
	t.Parallel()

	t.Run("flags non-ascii runes in go source", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "msg.go"),
			"package msg\n\nvar greeting = \"héllo\"\n")

		tool := NewASCIICheck(model.TierExperimental, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		found := findingsOfType(result, "non_ascii_rune")
		if len(found) != 1 {
			t.Fatalf("non_ascii_rune findings = %d, want 1", len(found))
		}
		if found[0].Line != 3 {
			t.Errorf("line = %d, want 3", found[0].Line)
		}
		if found[0].Severity != model.SeverityInfo {
			t.Errorf("severity = %v, want info", found[0].Severity)
		}
	})

	t.Run("flags invisible controls as high severity", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "sneaky.go"),
			"package sneaky\n\nvar x = \"a‮b\"\n")

		tool := NewASCIICheck(model.TierExperimental, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		found := findingsOfType(result, "invisible_control_character")
		if len(found) != 1 {
			t.Fatalf("invisible_control_character findings = %d, want 1", len(found))
		}
		if found[0].Severity != model.SeverityHigh {
			t.Errorf("severity = %v, want high", found[0].Severity)
		}
	})

	t.Run("flags invisible controls in yaml and txt files", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "deploy.yaml"),
			"name: prod‮kcab\n")
		writeFile(t, filepath.Join(proj.Root, "NOTES.txt"),
			"plain\nzero​width\n")

		tool := NewASCIICheck(model.TierExperimental, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		found := findingsOfType(result, "invisible_control_character")
		if len(found) != 2 {
			t.Fatalf("invisible_control_character findings = %d, want 2", len(found))
		}
		byFile := map[string]int{}
		for _, f := range found {
			byFile[f.File]++
		}
		if byFile["deploy.yaml"] != 1 || byFile["NOTES.txt"] != 1 {
			t.Errorf("findings per file = %v, want one in deploy.yaml and one in NOTES.txt", byFile)
		}
		// Non-Go files are not held to the ASCII-only rule.
		if n := len(findingsOfType(result, "non_ascii_rune")); n != 0 {
			t.Errorf("non_ascii_rune findings = %d, want 0", n)
		}
	})

	t.Run("flags non-nfc documentation", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		// "é" as combining sequence: e + U+0301, which NFC would compose.
		writeFile(t, filepath.Join(proj.Root, "docs", "guide.md"),
			"# Guide\n\ncafé menu\n")

		tool := NewASCIICheck(model.TierExperimental, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n := len(findingsOfType(result, "normalization_drift")); n != 1 {
			t.Errorf("normalization_drift findings = %d, want 1", n)
		}
	})

	t.Run("clean ascii project is quiet", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "ok.go"), "package ok\n\nvar x = 1\n")
		writeFile(t, filepath.Join(proj.Root, "README.md"), "# OK\n")

		tool := NewASCIICheck(model.TierExperimental, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Summary.Status != model.StatusOK {
			t.Errorf("status = %q with findings %v", result.Summary.Status, result.Findings)
		}
	})
}

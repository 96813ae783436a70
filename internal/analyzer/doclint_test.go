package analyzer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/devaudit/devaudit/internal/model"
)

// generatedDoc renders a minimal generated document with a valid header.
func generatedDoc(file, source, digest, body string) string {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := &model.DocHeader{
		File:          file,
		Generated:     now,
		LastGenerated: now,
		Source:        source,
		SourceDigest:  digest,
	}
	return h.Render() + body
}

// TestDocLint tests heading, link, and header checks.
func TestDocLint(t *testing.T) {
	t.Parallel()

	t.Run("flags heading jumps and extra h1", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "docs", "guide.md"), `# Guide

#### Deep Dive

# Second Title
`)

		tool := NewDocLint(model.TierSupporting, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n := len(findingsOfType(result, "heading_level_jump")); n != 1 {
			t.Errorf("heading_level_jump findings = %d, want 1", n)
		}
		if n := len(findingsOfType(result, "multiple_h1")); n != 1 {
			t.Errorf("multiple_h1 findings = %d, want 1", n)
		}
	})

	t.Run("ignores headings inside code fences", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "docs", "snippets.md"), "# Snippets\n\n```\n# not a heading\n##### neither\n```\n")

		tool := NewDocLint(model.TierSupporting, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Summary.TotalIssues != 0 {
			t.Errorf("findings = %v, want none", result.Findings)
		}
	})

	t.Run("flags broken relative links", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "docs", "exists.md"), "# Exists\n")
		writeFile(t, filepath.Join(proj.Root, "docs", "index.md"), `# Index

[good](exists.md) and [bad](missing.md) and [external](https://example.com/x) and [anchor](#section)
`)

		tool := NewDocLint(model.TierSupporting, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		broken := findingsOfType(result, "broken_link")
		if len(broken) != 1 {
			t.Fatalf("broken_link findings = %d (%v), want 1", len(broken), broken)
		}
		if broken[0].Value != "missing.md" {
			t.Errorf("value = %q, want missing.md", broken[0].Value)
		}
	})

	t.Run("checks html hrefs", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "docs", "page.html"),
			`<html><body><a href="gone.html">gone</a><a href="https://example.com">ok</a></body></html>`)

		tool := NewDocLint(model.TierSupporting, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		broken := findingsOfType(result, "broken_link")
		if len(broken) != 1 || broken[0].Value != "gone.html" {
			t.Errorf("broken_link findings = %v, want one for gone.html", broken)
		}
	})

	t.Run("flags generated doc without header", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "docs", "registry.md"),
			model.GeneratedMarker+"\n\n# Registry\n")

		tool := NewDocLint(model.TierSupporting, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n := len(findingsOfType(result, "missing_doc_header")); n != 1 {
			t.Errorf("missing_doc_header findings = %d, want 1", n)
		}
	})

	t.Run("valid generated doc passes", func(t *testing.T) {
		t.Parallel()

		proj := testProject(t)
		writeFile(t, filepath.Join(proj.Root, "src.go"), "package src\n")
		writeFile(t, filepath.Join(proj.Root, "docs", "gen.md"),
			generatedDoc("docs/gen.md", "src.go", "blake2b:00", "\n# Gen\n"))

		tool := NewDocLint(model.TierSupporting, nil)
		result, err := tool.Run(context.Background(), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n := len(findingsOfType(result, "missing_doc_header")); n != 0 {
			t.Errorf("missing_doc_header findings = %d, want 0", n)
		}
	})
}

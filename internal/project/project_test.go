package project

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates a file with parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

// TestFindRoot tests project root resolution.
func TestFindRoot(t *testing.T) {
	t.Parallel()

	t.Run("explicit root", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		got, err := FindRoot(dir, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != dir {
			t.Errorf("got %q, want %q", got, dir)
		}
	})

	t.Run("explicit root must exist", func(t *testing.T) {
		t.Parallel()

		if _, err := FindRoot(filepath.Join(t.TempDir(), "missing"), ""); err == nil {
			t.Error("expected error for missing explicit root")
		}
	})

	t.Run("walks up to go.mod", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFile(t, filepath.Join(root, "go.mod"), "module example.com/x\n")
		nested := filepath.Join(root, "internal", "deep")
		if err := os.MkdirAll(nested, 0750); err != nil {
			t.Fatal(err)
		}

		got, err := FindRoot("", nested)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != root {
			t.Errorf("got %q, want %q", got, root)
		}
	})

	t.Run("no go.mod anywhere", func(t *testing.T) {
		t.Parallel()

		if _, err := FindRoot("", t.TempDir()); err == nil {
			t.Error("expected error when no go.mod found")
		}
	})
}

// TestGoFiles tests Go source enumeration with ignore rules.
func TestGoFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "internal", "a", "a.go"), "package a\n")
	writeFile(t, filepath.Join(root, "vendor", "dep", "dep.go"), "package dep\n")
	writeFile(t, filepath.Join(root, ".hidden", "h.go"), "package h\n")
	writeFile(t, filepath.Join(root, "README.md"), "# x\n")

	p := New(root, []string{"vendor"}, nil)
	files, err := p.GoFiles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("got %d files (%v), want 2", len(files), files)
	}
	for _, f := range files {
		rel := p.Rel(f)
		if rel != "main.go" && rel != "internal/a/a.go" {
			t.Errorf("unexpected file %q", rel)
		}
	}
}

// TestDocFiles tests documentation enumeration.
func TestDocFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(root, "docs", "guide.md"), "# guide\n")
	writeFile(t, filepath.Join(root, "docs", "api.html"), "<html></html>\n")
	writeFile(t, filepath.Join(root, "docs", "notes.txt"), "not a doc\n")
	writeFile(t, filepath.Join(root, "internal", "x.md"), "# not in a doc dir\n")

	p := New(root, nil, []string{"docs"})
	files, err := p.DocFiles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("got %d files (%v), want 3", len(files), files)
	}
}

// TestRel tests path relativization.
func TestRel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := New(root, nil, nil)

	if got := p.Rel(filepath.Join(root, "a", "b.go")); got != "a/b.go" {
		t.Errorf("Rel() = %q, want a/b.go", got)
	}
	if got := p.Rel("/outside/c.go"); got != "/outside/c.go" {
		t.Errorf("Rel() outside root = %q, want unchanged", got)
	}
}

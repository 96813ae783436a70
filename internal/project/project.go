// Package project locates the project root and enumerates the files the
// audit tools operate on. All enumeration goes through one walker so
// ignore rules apply uniformly.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
)

// Project represents the directory tree being audited.
type Project struct {
	// Root is the absolute path of the project root.
	Root string

	// ignore holds directory and file base names excluded from walks.
	ignore map[string]struct{}

	// docDirs lists documentation directories relative to Root.
	docDirs []string
}

// New creates a Project rooted at root. ignoreNames lists base names to
// skip during walks (e.g. "vendor"); docDirs lists documentation
// directories relative to the root.
func New(root string, ignoreNames, docDirs []string) *Project {
	ignore := make(map[string]struct{}, len(ignoreNames))
	for _, name := range ignoreNames {
		ignore[name] = struct{}{}
	}
	return &Project{
		Root:    root,
		ignore:  ignore,
		docDirs: docDirs,
	}
}

// FindRoot resolves the project root. If explicit is non-empty it is
// validated and returned as an absolute path. Otherwise FindRoot walks up
// from start looking for a go.mod file.
func FindRoot(explicit, start string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project root %s: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project root %s is not a directory", abs)
		}
		return abs, nil
	}

	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod found in %s or any parent directory", start)
		}
		dir = parent
	}
}

// Rel converts an absolute path under the root to a project-relative path
// with forward slashes. Paths outside the root are returned unchanged.
func (p *Project) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// Abs converts a project-relative path to an absolute one.
func (p *Project) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// GoFiles returns all .go files under the root, sorted, as absolute paths.
// Ignored directories are pruned; generated-looking files are included
// because the tools decide per finding whether they matter.
func (p *Project) GoFiles() ([]string, error) {
	return p.collect(p.Root, func(name string) bool {
		return strings.HasSuffix(name, ".go")
	})
}

// DocFiles returns documentation files (.md and .html) from the project
// root (non-recursively, for README-style files) and recursively from the
// configured doc directories.
func (p *Project) DocFiles() ([]string, error) {
	isDoc := func(name string) bool {
		return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".html")
	}

	var files []string

	entries, err := os.ReadDir(p.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read project root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && isDoc(e.Name()) {
			files = append(files, filepath.Join(p.Root, e.Name()))
		}
	}

	for _, dir := range p.docDirs {
		abs := filepath.Join(p.Root, filepath.FromSlash(dir))
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			continue
		}
		sub, err := p.collect(abs, isDoc)
		if err != nil {
			return nil, err
		}
		files = append(files, sub...)
	}

	sort.Strings(files)
	return files, nil
}

// TextFiles returns files with any of the given extensions (including the
// dot) under the root, sorted, as absolute paths.
func (p *Project) TextFiles(exts ...string) ([]string, error) {
	return p.collect(p.Root, func(name string) bool {
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				return true
			}
		}
		return false
	})
}

// collect walks dir with godirwalk, pruning ignored directories and
// gathering regular files matched by keep.
//
// Design decision: godirwalk over filepath.WalkDir because it avoids the
// per-entry os.Lstat on platforms that expose dirent types, which matters
// on trees with tens of thousands of files.
func (p *Project) collect(dir string, keep func(name string) bool) ([]string, error) {
	var files []string

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true, // sorted below; unsorted walking is faster
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			name := de.Name()
			if de.IsDir() {
				if _, skip := p.ignore[name]; skip && osPathname != dir {
					return filepath.SkipDir
				}
				// Hidden directories are never audit targets.
				if strings.HasPrefix(name, ".") && osPathname != dir {
					return filepath.SkipDir
				}
				return nil
			}
			if _, skip := p.ignore[name]; skip {
				return nil
			}
			if keep(name) {
				files = append(files, osPathname)
			}
			return nil
		},
		ErrorCallback: func(_ string, _ error) godirwalk.ErrorAction {
			// Unreadable entries are skipped rather than failing the audit.
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

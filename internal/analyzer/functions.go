package analyzer

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"strings"

	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/project"
)

// FunctionRegistry builds a registry of every function and method in the
// project and flags exported functions without doc comments and functions
// exceeding the configured length.
//
// Design decision: go/parser is used file by file rather than loading full
// packages because the registry needs positions and doc comments only;
// type information would cost an order of magnitude more time on large
// trees and add nothing to these checks.
type FunctionRegistry struct {
	tier     model.Tier
	maxLines int
	logger   *slog.Logger
}

// RegistryEntry is one function or method in the registry.
type RegistryEntry struct {
	// Name is the function name without receiver.
	Name string `json:"name"`

	// Receiver is the method receiver type, empty for plain functions.
	Receiver string `json:"receiver,omitempty"`

	// Package is the declared package name of the file.
	Package string `json:"package"`

	// File is the project-relative path.
	File string `json:"file"`

	// Line is the declaration line.
	Line int `json:"line"`

	// Lines is the length of the declaration in source lines.
	Lines int `json:"lines"`

	// Exported reports whether the function name is exported.
	Exported bool `json:"exported"`

	// Documented reports whether a doc comment is attached.
	Documented bool `json:"documented"`
}

// NewFunctionRegistry creates the function-registry tool.
func NewFunctionRegistry(tier model.Tier, maxLines int, logger *slog.Logger) *FunctionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &FunctionRegistry{tier: tier, maxLines: maxLines, logger: logger}
}

// Name implements runner.Tool.
func (t *FunctionRegistry) Name() string { return "function-registry" }

// Tier implements runner.Tool.
func (t *FunctionRegistry) Tier() model.Tier { return t.tier }

// Dependencies implements runner.Tool.
func (t *FunctionRegistry) Dependencies() []string { return nil }

// Run parses all Go files and builds the registry.
func (t *FunctionRegistry) Run(ctx context.Context, proj *project.Project) (*model.ToolResult, error) {
	files, err := proj.GoFiles()
	if err != nil {
		return nil, err
	}

	result := model.NewToolResult(t.Name(), t.tier)
	fset := token.NewFileSet()
	var entries []RegistryEntry
	parsed := 0

	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		rel := proj.Rel(path)
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			f := model.NewFinding(t.Name(), "unparseable_file", rel, 0)
			f.Description = err.Error()
			result.AddFinding(f)
			continue
		}
		parsed++
		isTest := strings.HasSuffix(path, "_test.go")

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}

			start := fset.Position(fn.Pos())
			end := fset.Position(fn.End())
			entry := RegistryEntry{
				Name:       fn.Name.Name,
				Receiver:   receiverType(fn),
				Package:    file.Name.Name,
				File:       rel,
				Line:       start.Line,
				Lines:      end.Line - start.Line + 1,
				Exported:   fn.Name.IsExported(),
				Documented: fn.Doc != nil,
			}
			entries = append(entries, entry)

			if isTest {
				continue
			}

			if entry.Exported && !entry.Documented && file.Name.Name != "main" {
				f := model.NewFinding(t.Name(), "missing_doc_comment", rel, start.Line)
				f.Value = qualifiedName(entry)
				result.AddFinding(f)
			}
			if t.maxLines > 0 && entry.Lines > t.maxLines {
				f := model.NewFinding(t.Name(), "long_function", rel, start.Line)
				f.Value = qualifiedName(entry)
				f.Description = fmt.Sprintf("%d lines (limit %d)", entry.Lines, t.maxLines)
				result.AddFinding(f)
			}
		}
	}

	t.logger.Debug("function registry built",
		"files", len(files),
		"parsed", parsed,
		"functions", len(entries),
	)

	result.SetDetail("functions", len(entries))
	result.SetDetail("files_parsed", parsed)
	result.SetDetail("registry", entries)
	return result, nil
}

// receiverType returns the receiver type name, without pointer marker.
func receiverType(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	switch expr := fn.Recv.List[0].Type.(type) {
	case *ast.StarExpr:
		if ident, ok := expr.X.(*ast.Ident); ok {
			return ident.Name
		}
		if idx, ok := expr.X.(*ast.IndexExpr); ok {
			if ident, ok := idx.X.(*ast.Ident); ok {
				return ident.Name
			}
		}
	case *ast.Ident:
		return expr.Name
	case *ast.IndexExpr:
		if ident, ok := expr.X.(*ast.Ident); ok {
			return ident.Name
		}
	}
	return ""
}

// qualifiedName renders "Receiver.Name" or "Name".
func qualifiedName(e RegistryEntry) string {
	if e.Receiver != "" {
		return e.Receiver + "." + e.Name
	}
	return e.Name
}

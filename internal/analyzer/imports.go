package analyzer

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/project"
)

// ImportAudit inspects import declarations: blank imports outside main
// packages and test files, import paths matching configured disallowed
// patterns, and packages imported more than once in the same file.
type ImportAudit struct {
	tier       model.Tier
	disallowed []*regexp.Regexp
	logger     *slog.Logger
}

// NewImportAudit creates the import-audit tool. disallowedPatterns must be
// valid RE2 expressions; config validation guarantees this before tools
// are constructed.
func NewImportAudit(tier model.Tier, disallowedPatterns []string, logger *slog.Logger) (*ImportAudit, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res := make([]*regexp.Regexp, 0, len(disallowedPatterns))
	for _, p := range disallowedPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("disallowed import pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return &ImportAudit{tier: tier, disallowed: res, logger: logger}, nil
}

// Name implements runner.Tool.
func (t *ImportAudit) Name() string { return "import-audit" }

// Tier implements runner.Tool.
func (t *ImportAudit) Tier() model.Tier { return t.tier }

// Dependencies implements runner.Tool.
// The import audit reads the same file set the registry parses; running it
// after function-registry means parse failures are already reported once.
func (t *ImportAudit) Dependencies() []string { return []string{"function-registry"} }

// Run parses import declarations of all Go files.
func (t *ImportAudit) Run(ctx context.Context, proj *project.Project) (*model.ToolResult, error) {
	files, err := proj.GoFiles()
	if err != nil {
		return nil, err
	}

	result := model.NewToolResult(t.Name(), t.tier)
	fset := token.NewFileSet()
	totalImports := 0

	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		rel := proj.Rel(path)
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			// function-registry already reported the parse failure.
			continue
		}
		isTest := strings.HasSuffix(path, "_test.go")
		seen := make(map[string]int)

		for _, imp := range file.Imports {
			importPath, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				continue
			}
			totalImports++
			line := fset.Position(imp.Pos()).Line

			if prev, dup := seen[importPath]; dup {
				f := model.NewFinding(t.Name(), "duplicate_import", rel, line)
				f.Value = importPath
				f.Description = fmt.Sprintf("also imported on line %d", prev)
				result.AddFinding(f)
			} else {
				seen[importPath] = line
			}

			if imp.Name != nil && imp.Name.Name == "_" && file.Name.Name != "main" && !isTest {
				f := model.NewFinding(t.Name(), "blank_import", rel, line)
				f.Value = importPath
				result.AddFinding(f)
			}

			for _, re := range t.disallowed {
				if re.MatchString(importPath) {
					f := model.NewFinding(t.Name(), "disallowed_import", rel, line)
					f.Value = importPath
					f.Description = "matches pattern " + re.String()
					result.AddFinding(f)
					break
				}
			}
		}
	}

	t.logger.Debug("import audit complete",
		"files", len(files),
		"imports", totalImports,
	)

	result.SetDetail("files_scanned", len(files))
	result.SetDetail("imports_seen", totalImports)
	return result, nil
}

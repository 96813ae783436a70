package analyzer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/project"
)

// markdownLinkRe matches inline markdown links: [text](target).
// Reference-style links are rare in this corpus and intentionally skipped.
var markdownLinkRe = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)[^)]*\)`)

// headingRe matches ATX headings at line start.
var headingRe = regexp.MustCompile(`^(#{1,6})\s+`)

// DocLint checks documentation structure: heading hierarchy, intra-repo
// link resolution, and the metadata header block required on generated
// documents.
//
// Design decision: Markdown is scanned line by line rather than through a
// full CommonMark parser; the checks only need headings and inline links,
// and a parser dependency would dwarf the feature. HTML files go through
// golang.org/x/net/html because attribute parsing by regex is how link
// checkers get false positives.
type DocLint struct {
	tier   model.Tier
	logger *slog.Logger
}

// NewDocLint creates the doc-lint tool.
func NewDocLint(tier model.Tier, logger *slog.Logger) *DocLint {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocLint{tier: tier, logger: logger}
}

// Name implements runner.Tool.
func (t *DocLint) Name() string { return "doc-lint" }

// Tier implements runner.Tool.
func (t *DocLint) Tier() model.Tier { return t.tier }

// Dependencies implements runner.Tool.
func (t *DocLint) Dependencies() []string { return nil }

// Run checks every documentation file in the project.
func (t *DocLint) Run(ctx context.Context, proj *project.Project) (*model.ToolResult, error) {
	files, err := proj.DocFiles()
	if err != nil {
		return nil, err
	}

	result := model.NewToolResult(t.Name(), t.tier)
	var generated []string

	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		data, err := os.ReadFile(path) //nolint:gosec // Paths come from the project walker
		if err != nil {
			continue
		}
		content := string(data)
		rel := proj.Rel(path)

		if model.IsGeneratedDoc(content) {
			generated = append(generated, rel)
			if _, ok := model.ParseDocHeader(content); !ok {
				result.AddFinding(model.NewFinding(t.Name(), "missing_doc_header", rel, 1))
			}
		}

		if strings.HasSuffix(path, ".html") {
			t.lintHTML(proj, path, content, result)
			continue
		}
		t.lintMarkdown(proj, path, content, result)
	}

	t.logger.Debug("doc lint complete",
		"docs", len(files),
		"generated", len(generated),
	)

	result.SetDetail("docs_scanned", len(files))
	result.SetDetail("generated_docs", generated)
	return result, nil
}

// lintMarkdown checks heading structure and inline links of one file.
func (t *DocLint) lintMarkdown(proj *project.Project, path, content string, result *model.ToolResult) {
	rel := proj.Rel(path)
	inFence := false
	prevLevel := 0
	h1Count := 0

	for i, line := range strings.Split(content, "\n") {
		lineNum := i + 1

		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			level := len(m[1])
			if level == 1 {
				h1Count++
				if h1Count > 1 {
					result.AddFinding(model.NewFinding(t.Name(), "multiple_h1", rel, lineNum))
				}
			}
			if prevLevel > 0 && level > prevLevel+1 {
				f := model.NewFinding(t.Name(), "heading_level_jump", rel, lineNum)
				f.Description = strings.TrimSpace(line)
				result.AddFinding(f)
			}
			prevLevel = level
		}

		for _, m := range markdownLinkRe.FindAllStringSubmatch(line, -1) {
			t.checkLink(proj, path, m[1], lineNum, result)
		}
	}
}

// lintHTML extracts href attributes and checks intra-repo targets.
func (t *DocLint) lintHTML(proj *project.Project, path, content string, result *model.ToolResult) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		f := model.NewFinding(t.Name(), "unparseable_file", proj.Rel(path), 0)
		f.Description = err.Error()
		result.AddFinding(f)
		return
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					t.checkLink(proj, path, attr.Val, 0, result)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

// checkLink verifies that a relative link target exists on disk.
// External URLs, anchors, and mail links are out of scope: this audit has
// no network access and anchor resolution would require parsing the target.
func (t *DocLint) checkLink(proj *project.Project, docPath, target string, line int, result *model.ToolResult) {
	if target == "" || strings.HasPrefix(target, "#") {
		return
	}
	if strings.Contains(target, "://") || strings.HasPrefix(target, "mailto:") {
		return
	}

	// Strip anchor and query parts of relative targets.
	if idx := strings.IndexAny(target, "#?"); idx >= 0 {
		target = target[:idx]
	}
	if target == "" {
		return
	}

	resolved := filepath.Join(filepath.Dir(docPath), filepath.FromSlash(target))
	if _, err := os.Stat(resolved); err == nil {
		return
	}

	f := model.NewFinding(t.Name(), "broken_link", proj.Rel(docPath), line)
	f.Value = target
	result.AddFinding(f)
}

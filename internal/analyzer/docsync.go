package analyzer

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/project"
)

// digestPrefix labels the digest algorithm in doc headers so the scheme
// can change without misreading old documents.
const digestPrefix = "blake2b:"

// DocSync detects stale generated documentation. Every generated document
// records a digest of its source files in its header; DocSync recomputes
// the digest and flags documents whose sources have changed since the last
// generation.
type DocSync struct {
	tier   model.Tier
	logger *slog.Logger
}

// NewDocSync creates the doc-sync tool.
func NewDocSync(tier model.Tier, logger *slog.Logger) *DocSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocSync{tier: tier, logger: logger}
}

// Name implements runner.Tool.
func (t *DocSync) Name() string { return "doc-sync" }

// Tier implements runner.Tool.
func (t *DocSync) Tier() model.Tier { return t.tier }

// Dependencies implements runner.Tool.
// doc-lint reports malformed headers first, so doc-sync can limit itself
// to documents whose headers parse.
func (t *DocSync) Dependencies() []string { return []string{"doc-lint"} }

// Run checks every generated document's source digest.
func (t *DocSync) Run(ctx context.Context, proj *project.Project) (*model.ToolResult, error) {
	files, err := proj.DocFiles()
	if err != nil {
		return nil, err
	}

	result := model.NewToolResult(t.Name(), t.tier)
	checked := 0
	stale := 0

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
		if !model.IsGeneratedDoc(content) {
			continue
		}
		header, ok := model.ParseDocHeader(content)
		if !ok {
			// doc-lint already reported the malformed header.
			continue
		}
		checked++
		rel := proj.Rel(path)

		digest, missing, err := ComputeSourceDigest(proj, header.Sources())
		if err != nil {
			return nil, err
		}
		for _, src := range missing {
			f := model.NewFinding(t.Name(), "missing_doc_source", rel, 0)
			f.Value = src
			result.AddFinding(f)
		}
		if len(missing) > 0 {
			continue
		}

		if header.SourceDigest == "" || header.SourceDigest != digest {
			stale++
			f := model.NewFinding(t.Name(), "stale_generated_doc", rel, 0)
			f.Value = header.Source
			if header.SourceDigest == "" {
				f.Description = "document header records no source digest"
			} else {
				f.Description = fmt.Sprintf("sources changed since %s",
					header.LastGenerated.Format(model.HeaderTimeFormat))
			}
			result.AddFinding(f)
		}
	}

	t.logger.Debug("doc sync complete",
		"generated_docs", checked,
		"stale", stale,
	)

	result.SetDetail("generated_docs_checked", checked)
	return result, nil
}

// ComputeSourceDigest hashes the given project-relative source files into
// the header digest form. It returns the digest, the subset of sources
// that do not exist, and an error only for hash-level failures. The digest
// covers path names and contents with NUL separators so that renaming a
// source or moving bytes between sources changes the digest.
func ComputeSourceDigest(proj *project.Project, sources []string) (digest string, missing []string, err error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", nil, err
	}

	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	for _, src := range sorted {
		data, readErr := os.ReadFile(proj.Abs(src)) //nolint:gosec // Source paths come from doc headers
		if readErr != nil {
			missing = append(missing, src)
			continue
		}
		h.Write([]byte(src))
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}

	return digestPrefix + hex.EncodeToString(h.Sum(nil)), missing, nil
}

// RefreshHeader rewrites a generated document's header with the current
// source digest and Last Generated timestamp, leaving the body untouched.
// It returns true when the file changed. When dryRun is true the file is
// not written.
func RefreshHeader(proj *project.Project, path string, now time.Time, dryRun bool) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Paths come from the project walker
	if err != nil {
		return false, err
	}
	content := string(data)

	header, ok := model.ParseDocHeader(content)
	if !ok {
		return false, fmt.Errorf("%s: no parseable metadata header", proj.Rel(path))
	}

	digest, missing, err := ComputeSourceDigest(proj, header.Sources())
	if err != nil {
		return false, err
	}
	if len(missing) > 0 {
		return false, fmt.Errorf("%s: sources missing: %s", proj.Rel(path), strings.Join(missing, ", "))
	}
	if header.SourceDigest == digest {
		return false, nil
	}

	header.SourceDigest = digest
	header.LastGenerated = now

	body := content
	if idx := strings.Index(content, "-->"); idx >= 0 {
		body = content[idx+len("-->"):]
		body = strings.TrimPrefix(body, "\n")
	}

	if dryRun {
		return true, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(path, []byte(header.Render()+body), info.Mode().Perm())
}

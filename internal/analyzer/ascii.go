package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/project"
)

// invisibleControls are characters that render as nothing (or flip text
// direction) while changing what a compiler or reader sees. Their presence
// in source is at best an accident and at worst a homoglyph attack.
var invisibleControls = map[rune]string{
	'­': "SOFT HYPHEN",
	'​': "ZERO WIDTH SPACE",
	'‌': "ZERO WIDTH NON-JOINER",
	'‍': "ZERO WIDTH JOINER",
	'‎': "LEFT-TO-RIGHT MARK",
	'‏': "RIGHT-TO-LEFT MARK",
	'‪': "LEFT-TO-RIGHT EMBEDDING",
	'‫': "RIGHT-TO-LEFT EMBEDDING",
	'‬': "POP DIRECTIONAL FORMATTING",
	'‭': "LEFT-TO-RIGHT OVERRIDE",
	'‮': "RIGHT-TO-LEFT OVERRIDE",
	'⁦': "LEFT-TO-RIGHT ISOLATE",
	'⁧': "RIGHT-TO-LEFT ISOLATE",
	'⁨': "FIRST STRONG ISOLATE",
	'⁩': "POP DIRECTIONAL ISOLATE",
	'\uFEFF': "ZERO WIDTH NO-BREAK SPACE",
}

// ASCIICheck verifies character-level hygiene: non-ASCII runes in Go
// sources, NFC normalization drift in documentation, and invisible or
// bidirectional control characters anywhere.
type ASCIICheck struct {
	tier   model.Tier
	logger *slog.Logger
}

// NewASCIICheck creates the ascii-check tool.
func NewASCIICheck(tier model.Tier, logger *slog.Logger) *ASCIICheck {
	if logger == nil {
		logger = slog.Default()
	}
	return &ASCIICheck{tier: tier, logger: logger}
}

// Name implements runner.Tool.
func (t *ASCIICheck) Name() string { return "ascii-check" }

// Tier implements runner.Tool.
func (t *ASCIICheck) Tier() model.Tier { return t.tier }

// Dependencies implements runner.Tool.
func (t *ASCIICheck) Dependencies() []string { return nil }

// asciiFileExts are the file types the character checks read. This is the
// same set the legacy scanner walks: anything a control character could
// hide in and still reach a reviewer or a build.
var asciiFileExts = []string{".go", ".md", ".html", ".yaml", ".yml", ".txt"}

// Run scans every text file in the project rune by rune.
func (t *ASCIICheck) Run(ctx context.Context, proj *project.Project) (*model.ToolResult, error) {
	result := model.NewToolResult(t.Name(), t.tier)

	files, err := proj.TextFiles(asciiFileExts...)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		t.scanFile(proj, path, result)
	}

	result.SetDetail("files_scanned", len(files))
	return result, nil
}

// scanFile checks one file. Every file gets the invisible-control check;
// Go sources additionally get the non-ASCII check and documentation files
// the NFC drift check.
func (t *ASCIICheck) scanFile(proj *project.Project, path string, result *model.ToolResult) {
	data, err := os.ReadFile(path) //nolint:gosec // Paths come from the project walker
	if err != nil {
		return
	}
	rel := proj.Rel(path)
	goSource := strings.HasSuffix(path, ".go")
	docFile := strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".html")

	for i, line := range strings.Split(string(data), "\n") {
		lineNum := i + 1

		for _, r := range line {
			if name, bad := invisibleControls[r]; bad {
				f := model.NewFinding(t.Name(), "invisible_control_character", rel, lineNum)
				f.Value = fmt.Sprintf("U+%04X %s", r, name)
				result.AddFinding(f)
			}
		}

		if goSource {
			if r := firstNonASCII(line); r != 0 {
				f := model.NewFinding(t.Name(), "non_ascii_rune", rel, lineNum)
				f.Value = fmt.Sprintf("U+%04X %q", r, string(r))
				result.AddFinding(f)
			}
			continue
		}

		if docFile && !norm.NFC.IsNormalString(line) {
			f := model.NewFinding(t.Name(), "normalization_drift", rel, lineNum)
			result.AddFinding(f)
		}
	}
}

// firstNonASCII returns the first printable non-ASCII rune on the line,
// or 0 when the line is clean. Invisible controls are reported separately
// with their own severity, so they are skipped here.
func firstNonASCII(line string) rune {
	for _, r := range line {
		if r > unicode.MaxASCII {
			if _, control := invisibleControls[r]; control {
				continue
			}
			return r
		}
	}
	return 0
}

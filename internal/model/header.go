package model

import (
	"bufio"
	"fmt"
	"strings"
	"time"
)

// GeneratedMarker is the first line of every file devaudit generates.
// The documentation tools use it to tell generated docs from hand-written ones.
const GeneratedMarker = "<!-- devaudit:generated -->"

// HeaderTimeFormat is the timestamp layout used in doc header blocks.
const HeaderTimeFormat = time.RFC3339

// DocHeader is the metadata block carried at the top of generated
// documentation files. Required fields are File, Generated, LastGenerated,
// and Source; Audience, Purpose, and Status are optional.
//
// The on-disk form is an HTML comment immediately after the generated
// marker, one "Key: Value" pair per line:
//
//	<!-- devaudit:generated -->
//	<!--
//	File: docs/function_registry.md
//	Generated: 2026-01-10T09:30:00Z
//	Last Generated: 2026-02-01T17:12:44Z
//	Source: internal/analyzer/functions.go
//	Source-Digest: blake2b:9f86d08...
//	-->
type DocHeader struct {
	// File is the project-relative path of the document itself.
	File string

	// Generated is when the document was first generated.
	Generated time.Time

	// LastGenerated is when the document was last regenerated.
	LastGenerated time.Time

	// Source names the inputs the document was generated from,
	// comma-separated project-relative paths.
	Source string

	// SourceDigest is the digest of the source files at generation time,
	// in "blake2b:<hex>" form. Empty when the generator did not record one.
	SourceDigest string

	// Audience optionally names who the document is for.
	Audience string

	// Purpose optionally states why the document exists.
	Purpose string

	// Status optionally records the document's lifecycle state.
	Status string
}

// Sources splits the Source field into individual paths.
func (h *DocHeader) Sources() []string {
	if h.Source == "" {
		return nil
	}
	parts := strings.Split(h.Source, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Render returns the marker plus comment block form of the header.
func (h *DocHeader) Render() string {
	var b strings.Builder
	b.WriteString(GeneratedMarker)
	b.WriteString("\n<!--\n")
	fmt.Fprintf(&b, "File: %s\n", h.File)
	fmt.Fprintf(&b, "Generated: %s\n", h.Generated.UTC().Format(HeaderTimeFormat))
	fmt.Fprintf(&b, "Last Generated: %s\n", h.LastGenerated.UTC().Format(HeaderTimeFormat))
	fmt.Fprintf(&b, "Source: %s\n", h.Source)
	if h.SourceDigest != "" {
		fmt.Fprintf(&b, "Source-Digest: %s\n", h.SourceDigest)
	}
	if h.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", h.Audience)
	}
	if h.Purpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", h.Purpose)
	}
	if h.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", h.Status)
	}
	b.WriteString("-->\n")
	return b.String()
}

// IsGeneratedDoc reports whether the content starts with the generated marker.
// Leading blank lines are tolerated.
func IsGeneratedDoc(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return trimmed == GeneratedMarker
	}
	return false
}

// ParseDocHeader extracts the metadata block from a generated document.
// It returns the parsed header and true when a well-formed block is present,
// or a zero header and false otherwise.
func ParseDocHeader(content string) (*DocHeader, bool) {
	if !IsGeneratedDoc(content) {
		return nil, false
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	inBlock := false
	h := &DocHeader{}
	seenRequired := map[string]bool{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == GeneratedMarker || line == "":
			continue
		case line == "<!--":
			inBlock = true
			continue
		case line == "-->":
			if !inBlock {
				return nil, false
			}
			required := seenRequired["File"] && seenRequired["Generated"] &&
				seenRequired["Last Generated"] && seenRequired["Source"]
			return h, required
		case !inBlock:
			// Content before any comment block means no header.
			return nil, false
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "File":
			h.File = value
			seenRequired["File"] = true
		case "Generated":
			if t, err := time.Parse(HeaderTimeFormat, value); err == nil {
				h.Generated = t
				seenRequired["Generated"] = true
			}
		case "Last Generated":
			if t, err := time.Parse(HeaderTimeFormat, value); err == nil {
				h.LastGenerated = t
				seenRequired["Last Generated"] = true
			}
		case "Source":
			h.Source = value
			seenRequired["Source"] = true
		case "Source-Digest":
			h.SourceDigest = value
		case "Audience":
			h.Audience = value
		case "Purpose":
			h.Purpose = value
		case "Status":
			h.Status = value
		}
	}

	return nil, false
}

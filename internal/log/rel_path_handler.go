package log

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
)

// RelPathHandler wraps an slog.Handler and rewrites string attribute values
// that begin with the project root to project-relative paths.
//
// Design decision: We use a handler wrapper rather than relativizing at
// every call site because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites can keep passing the absolute paths they actually operate on
type RelPathHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler

	// root is the absolute project root, with a trailing separator.
	root string
}

// NewRelPathHandler creates a RelPathHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used. root is the absolute
// project root; an empty root disables rewriting.
func NewRelPathHandler(handler slog.Handler, root string) *RelPathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if root != "" && !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return &RelPathHandler{handler: handler, root: root}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *RelPathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it to the underlying handler.
func (h *RelPathHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are rewritten before being added.
func (h *RelPathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &RelPathHandler{handler: h.handler.WithAttrs(rewritten), root: h.root}
}

// WithGroup returns a new handler with the given group name.
func (h *RelPathHandler) WithGroup(name string) slog.Handler {
	return &RelPathHandler{handler: h.handler.WithGroup(name), root: h.root}
}

// rewriteAttr relativizes string values and recurses into groups.
func (h *RelPathHandler) rewriteAttr(a slog.Attr) slog.Attr {
	if h.root == "" {
		return a
	}

	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if strings.HasPrefix(v, h.root) {
			return slog.String(a.Key, filepath.ToSlash(strings.TrimPrefix(v, h.root)))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		rewritten := make([]any, 0, len(attrs))
		for _, ga := range attrs {
			rewritten = append(rewritten, h.rewriteAttr(ga))
		}
		return slog.Group(a.Key, rewritten...)
	default:
	}
	return a
}

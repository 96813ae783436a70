// Package log provides slog handler utilities for devaudit.
// Its RelPathHandler rewrites absolute project paths in log attributes to
// project-relative form so that log output is stable across machines and
// diffable between runs.
package log

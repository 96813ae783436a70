// Package history provides SQLite-based storage for audit run history.
//
// Every audit run is persisted with its per-tool results so that the
// status command can compare the latest runs, and coverage snapshots
// are kept separately so trends survive report rotation.
//
// Design decision: We use modernc.org/sqlite (pure Go, no cgo) so the
// binary stays a single static artifact that is easy to distribute to
// developer machines and CI runners.
package history

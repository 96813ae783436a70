// Package model defines the core data structures for audit results.
// It contains the audit report, per-tool results, findings with severity
// levels, and the metadata contract carried by generated reports.
package model

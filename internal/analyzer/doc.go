// Package analyzer implements the audit tools: the Go source analyses
// (function registry, import audit), the text scanners (legacy references,
// ASCII compliance), the documentation checks (lint and sync), and coverage
// aggregation.
//
// Every tool implements runner.Tool and emits the standardized result
// envelope from the model package. Tools never mutate the project tree;
// the fix operations (legacy --fix, doc-fix) are separate methods invoked
// explicitly by their commands.
package analyzer

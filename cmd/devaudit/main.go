// Package main provides the entry point for the devaudit CLI.
//
// devaudit is an audit suite for Go projects. It runs tiered static
// analysis tools over a project tree and produces aggregated reports.
//
// Usage:
//
//	devaudit audit [--quick|--full]
//	devaudit status
//
// See --help for all available options.
package main

import "os"

// main is the entry point for devaudit.
func main() {
	os.Exit(Execute())
}

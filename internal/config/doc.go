// Package config provides configuration structures and utilities for devaudit.
// It defines run options populated from CLI flags, the YAML project
// configuration file with tool tier overrides and analysis patterns, and
// the default tool registry.
package config

// Package cmd provides the command-line interface for wmnctl.
//
// This package implements all CLI commands using the Cobra framework.
//
// # Available Commands
//
//   - format: canonicalize the dataset and schema
//   - hash: refresh the digest file next to each tracked file
//   - validate: check the dataset against the schema and for duplicate names
//   - check: format, hash and validate in sequence
//   - watch: re-run check when a tracked file changes
//   - config show / config init: inspect or create configuration
//   - version: build information
//
// # Configuration Integration
//
// Commands respect configuration from multiple sources in order of precedence:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (WMN_<SECTION>_<OPTION>, e.g. WMN_HASH_ALGORITHM)
//  3. Configuration file (.wmn.yml, --config or WMN_CONFIG_FILE)
//  4. Default values (lowest priority)
//
// # Error Handling
//
// Log output goes to stderr; reports such as validate --output json go to
// stdout. A failing command logs its error once and Execute returns it, so
// main exits with status 1. Panics are recovered and reported the same way.
package cmd

// Package internal contains the core implementation packages for wmnctl.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the wmnctl CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - jsondoc: order-preserving JSON documents, pointers and canonical output
//   - store: cached access to the dataset and schema files with atomic writes
//   - canonical: deterministic formatting of the dataset and schema
//   - integrity: digest files recording the content of each tracked file
//   - validation: JSON schema validation and duplicate site name detection
//   - pipeline: format, hash, validate and watch as the CLI runs them
//   - watcher: file system monitoring with debouncing
//   - config: configuration loading, validation and rendering
//   - errors: structured error kinds and codes
//   - logging: structured logging on log/slog
//   - version: build information
//
// # Inter-Package Communication
//
// The formatter, hasher and validator never call each other. Each one is
// handed a store through a small interface describing the capabilities it
// uses, and the pipeline gives every step a fresh store so that each step
// sees the files as the previous one left them.
package internal

// Package logging assembles structured slog loggers and formatting helpers
// used across sweep components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so watcher and organizer code can
// tag log lines with rule names and correlation IDs consistently. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging

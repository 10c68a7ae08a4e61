// Package config loads, normalizes, and validates sweep's TOML configuration.
//
// A configuration file describes the watched directories and their
// classification rules plus ambient settings (logging, watcher timing,
// history, notifications). Load applies defaults, expands ~ in paths, and
// canonicalizes extensions to lowercase dot-prefixed form so the rest of the
// system never re-normalizes. Configuration problems are fatal at startup and
// never surface at watch time.
package config

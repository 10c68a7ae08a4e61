// Package notifications delivers sweep events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Move and error notifications can be toggled independently so a
// busy downloads directory does not flood the topic.
package notifications

// Package ipc implements the JSON-RPC control channel between the sweep CLI
// and the daemon. The transport is a Unix domain socket in the log
// directory; the daemon owns the socket lifecycle and removes it on
// shutdown.
package ipc

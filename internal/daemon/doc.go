// Package daemon ties the watchers, history journal, and notifications into
// a single service object with Start/Stop lifecycle and single-instance
// locking.
package daemon

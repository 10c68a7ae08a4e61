// Package organizer classifies files against watch rules and moves them to
// their destinations.
//
// Classification order is fixed: download provenance (origin URL recorded by
// the browser) is consulted first, and a redirect-domain hit overrides any
// extension rule. Extension rules are then tried in declaration order with
// the first match winning. Files nothing claims stay where they are.
//
// Before classifying, the organizer filters out directories, hidden files,
// temporary download artifacts, and OS litter, then probes the file size
// twice to avoid moving a file mid-download.
package organizer

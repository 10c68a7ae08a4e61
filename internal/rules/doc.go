// Package rules holds the immutable runtime form of sweep's classification
// rules and the matching logic over them.
//
// A WatchRule is compiled once at startup from validated configuration and
// never mutated afterwards. Matching order is fixed: the download-provenance
// redirect check runs before type rules, and type rules match in declaration
// order with the first hit winning even when extension sets overlap.
package rules

// Package provenance reads the "where downloaded from" URL that browsers
// record on files via OS extended attributes.
//
// The capability is expressed as a small injected interface so the organizer
// can be tested without filesystem xattr support, and so platform-specific
// attribute conventions stay out of the classification logic. Missing
// attributes, unsupported filesystems, and read errors all mean "no
// provenance" and are never surfaced as errors.
package provenance

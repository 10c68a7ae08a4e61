package rules

import (
	"net/url"
	"path/filepath"
	"strings"
)

// MatchKind identifies which part of the rule chain claimed a file.
type MatchKind string

const (
	MatchRedirect MatchKind = "redirect"
	MatchType     MatchKind = "type"
)

// Match is a positive classification decision for a single file.
type Match struct {
	Kind MatchKind
	// TypeRule is the matching type rule name; empty for redirects.
	TypeRule string
	// Domain is the case-folded origin host; empty for type matches.
	Domain string
	// Destination is the absolute directory the file should move into.
	Destination string
}

// MatchTypeRule scans the rule's type rules in declaration order and returns
// the first whose extension set contains the file's extension.
func (r WatchRule) MatchTypeRule(path string) (Match, bool) {
	ext := fold(filepath.Ext(path))
	if ext == "" {
		return Match{}, false
	}
	for _, typeRule := range r.Types {
		if _, ok := typeRule.extensions[ext]; ok {
			return Match{
				Kind:        MatchType,
				TypeRule:    typeRule.Name,
				Destination: filepath.Join(r.WatchDirectory, typeRule.Destination),
			}, true
		}
	}
	return Match{}, false
}

// MatchRedirectURL parses the origin URL and reports whether its host
// contains any configured redirect-domain substring. Matching is deliberately
// a plain substring test on the case-folded host; a pattern like "book" will
// match "facebook.com".
func (r WatchRule) MatchRedirectURL(origin string) (Match, bool) {
	if origin == "" || len(r.RedirectDomains) == 0 {
		return Match{}, false
	}
	host := ExtractHost(origin)
	if host == "" {
		return Match{}, false
	}
	for _, pattern := range r.RedirectDomains {
		if strings.Contains(host, pattern) {
			return Match{
				Kind:        MatchRedirect,
				Domain:      host,
				Destination: r.RedirectDir(),
			}, true
		}
	}
	return Match{}, false
}

// ExtractHost returns the case-folded host of a URL, or "" if the URL does
// not parse or carries no host.
func ExtractHost(origin string) string {
	parsed, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return ""
	}
	return fold(parsed.Host)
}

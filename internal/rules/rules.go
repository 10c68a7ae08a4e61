package rules

import (
	"path/filepath"

	"golang.org/x/text/cases"

	"sweep/internal/config"
)

// TypeRule maps a set of file extensions to a destination subdirectory.
type TypeRule struct {
	Name        string
	Destination string

	extensions map[string]struct{}
	ordered    []string
}

// Extensions returns the rule's extensions in declaration order.
func (t TypeRule) Extensions() []string {
	out := make([]string, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Contains reports whether the case-folded extension is part of the rule.
func (t TypeRule) Contains(ext string) bool {
	_, ok := t.extensions[fold(ext)]
	return ok
}

// WatchRule is the immutable runtime form of one configured watch directory.
// Type rules are matched in declaration order; the first match wins even when
// extension sets overlap.
type WatchRule struct {
	Name                string
	WatchDirectory      string
	RedirectDomains     []string
	RedirectDestination string
	SourceDirectories   []string
	Types               []TypeRule
}

// Compile converts enabled config rules into their runtime form. The config
// package has already normalized paths and extensions.
func Compile(cfg *config.Config) []WatchRule {
	if cfg == nil {
		return nil
	}
	enabled := cfg.EnabledRules()
	compiled := make([]WatchRule, 0, len(enabled))
	for _, rule := range enabled {
		compiled = append(compiled, compileRule(rule))
	}
	return compiled
}

func compileRule(rule config.Rule) WatchRule {
	types := make([]TypeRule, 0, len(rule.Types))
	for _, typeRule := range rule.Types {
		set := make(map[string]struct{}, len(typeRule.Extensions))
		ordered := make([]string, 0, len(typeRule.Extensions))
		for _, ext := range typeRule.Extensions {
			folded := fold(ext)
			if _, dup := set[folded]; dup {
				continue
			}
			set[folded] = struct{}{}
			ordered = append(ordered, folded)
		}
		types = append(types, TypeRule{
			Name:        typeRule.Name,
			Destination: typeRule.Destination,
			extensions:  set,
			ordered:     ordered,
		})
	}

	domains := make([]string, 0, len(rule.RedirectDomains))
	for _, domain := range rule.RedirectDomains {
		domains = append(domains, fold(domain))
	}

	sources := make([]string, len(rule.SourceDirectories))
	copy(sources, rule.SourceDirectories)

	return WatchRule{
		Name:                rule.Name,
		WatchDirectory:      rule.WatchDirectory,
		RedirectDomains:     domains,
		RedirectDestination: rule.RedirectDestination,
		SourceDirectories:   sources,
		Types:               types,
	}
}

// SourceDirs resolves the configured source subdirectories to absolute paths.
// "." resolves to the watch directory itself.
func (r WatchRule) SourceDirs() []string {
	dirs := make([]string, 0, len(r.SourceDirectories))
	for _, src := range r.SourceDirectories {
		if src == "." {
			dirs = append(dirs, r.WatchDirectory)
			continue
		}
		dirs = append(dirs, filepath.Join(r.WatchDirectory, src))
	}
	return dirs
}

// AllowsParent reports whether dir is exactly one of the rule's source
// directories. There is no recursive matching beyond the explicit list.
func (r WatchRule) AllowsParent(dir string) bool {
	cleaned := filepath.Clean(dir)
	for _, src := range r.SourceDirs() {
		if cleaned == src {
			return true
		}
	}
	return false
}

// RedirectDir returns the absolute redirect destination directory.
func (r WatchRule) RedirectDir() string {
	return filepath.Join(r.WatchDirectory, r.RedirectDestination)
}

// DestinationDirs returns every absolute destination directory the rule can
// move files into, for startup directory creation.
func (r WatchRule) DestinationDirs() []string {
	dirs := make([]string, 0, len(r.Types)+1)
	dirs = append(dirs, r.RedirectDir())
	for _, typeRule := range r.Types {
		dirs = append(dirs, filepath.Join(r.WatchDirectory, typeRule.Destination))
	}
	return dirs
}

func fold(s string) string {
	return cases.Fold().String(s)
}

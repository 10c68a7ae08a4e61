package config

import (
	"fmt"
	"strings"
)

// normalize expands paths and canonicalizes rule fields so downstream code can
// rely on absolute watch directories and lowercase dot-prefixed extensions.
func (c *Config) normalize() error {
	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Watcher.CreateQuietPeriod <= 0 {
		c.Watcher.CreateQuietPeriod = 2
	}
	if c.Watcher.MoveQuietPeriod <= 0 {
		c.Watcher.MoveQuietPeriod = 1
	}
	if c.Watcher.ReadinessProbeDelayMS <= 0 {
		c.Watcher.ReadinessProbeDelayMS = 500
	}
	c.Watcher.TempSuffixes = normalizeSuffixes(c.Watcher.TempSuffixes)

	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = 10
	}

	for i := range c.Rules {
		if err := normalizeRule(&c.Rules[i]); err != nil {
			return err
		}
	}
	return nil
}

func normalizeRule(rule *Rule) error {
	rule.Name = strings.TrimSpace(rule.Name)

	watchDir, err := expandPath(strings.TrimSpace(rule.WatchDirectory))
	if err != nil {
		return fmt.Errorf("rule %q: %w", rule.Name, err)
	}
	rule.WatchDirectory = watchDir

	domains := make([]string, 0, len(rule.RedirectDomains))
	for _, domain := range rule.RedirectDomains {
		if trimmed := strings.TrimSpace(domain); trimmed != "" {
			domains = append(domains, strings.ToLower(trimmed))
		}
	}
	rule.RedirectDomains = domains

	rule.RedirectDestination = strings.TrimSpace(rule.RedirectDestination)
	if rule.RedirectDestination == "" {
		rule.RedirectDestination = "tmp"
	}

	if len(rule.SourceDirectories) == 0 {
		rule.SourceDirectories = []string{"."}
	}
	sources := make([]string, 0, len(rule.SourceDirectories))
	for _, src := range rule.SourceDirectories {
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			trimmed = "."
		}
		sources = append(sources, trimmed)
	}
	rule.SourceDirectories = sources

	for t := range rule.Types {
		typeRule := &rule.Types[t]
		typeRule.Name = strings.TrimSpace(typeRule.Name)
		typeRule.Destination = strings.TrimSpace(typeRule.Destination)
		if typeRule.Destination == "" {
			typeRule.Destination = typeRule.Name
		}
		typeRule.Extensions = normalizeSuffixes(typeRule.Extensions)
	}
	return nil
}

// normalizeSuffixes lowercases entries and guarantees a leading dot.
func normalizeSuffixes(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		out = append(out, trimmed)
	}
	return out
}

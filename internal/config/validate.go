package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validate checks configuration invariants. Violations are fatal at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir is required")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}

	seen := make(map[string]struct{}, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.Name == "" {
			return fmt.Errorf("rules[%d]: name is required", i)
		}
		if _, dup := seen[rule.Name]; dup {
			return fmt.Errorf("rule %q: duplicate rule name", rule.Name)
		}
		seen[rule.Name] = struct{}{}

		if rule.WatchDirectory == "" {
			return fmt.Errorf("rule %q: watch_directory is required", rule.Name)
		}
		if !filepath.IsAbs(rule.WatchDirectory) {
			return fmt.Errorf("rule %q: watch_directory must be absolute", rule.Name)
		}

		typeNames := make(map[string]struct{}, len(rule.Types))
		for _, typeRule := range rule.Types {
			if typeRule.Name == "" {
				return fmt.Errorf("rule %q: type rule name is required", rule.Name)
			}
			if _, dup := typeNames[typeRule.Name]; dup {
				return fmt.Errorf("rule %q: duplicate type rule %q", rule.Name, typeRule.Name)
			}
			typeNames[typeRule.Name] = struct{}{}
			if len(typeRule.Extensions) == 0 {
				return fmt.Errorf("rule %q: type rule %q has no extensions", rule.Name, typeRule.Name)
			}
		}

		for _, src := range rule.SourceDirectories {
			if filepath.IsAbs(src) {
				return fmt.Errorf("rule %q: source directory %q must be relative to the watch directory", rule.Name, src)
			}
		}
	}
	return nil
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Watcher contains timing configuration for filesystem event handling.
type Watcher struct {
	// CreateQuietPeriod is the quiet window, in seconds, that must elapse
	// after the last create event for a path before it is classified.
	CreateQuietPeriod int `toml:"create_quiet_period"`
	// MoveQuietPeriod is the quiet window, in seconds, for move-in events.
	MoveQuietPeriod int `toml:"move_quiet_period"`
	// ReadinessProbeDelayMS is the delay between the two size samples of the
	// file readiness check.
	ReadinessProbeDelayMS int `toml:"readiness_probe_delay_ms"`
	// TempSuffixes lists filename suffixes that mark in-progress downloads.
	TempSuffixes []string `toml:"temp_suffixes"`
}

// History contains configuration for the move history journal.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Moves          bool   `toml:"moves"`
	Errors         bool   `toml:"errors"`
}

// TypeRule describes one extension-to-destination mapping within a rule.
// Declaration order in the config file is match order.
type TypeRule struct {
	Name        string   `toml:"name"`
	Extensions  []string `toml:"extensions"`
	Destination string   `toml:"destination"`
}

// Rule describes one watched directory and its classification rules.
type Rule struct {
	Name                string     `toml:"name"`
	WatchDirectory      string     `toml:"watch_directory"`
	Enabled             *bool      `toml:"enabled"`
	RedirectDomains     []string   `toml:"redirect_domains"`
	RedirectDestination string     `toml:"redirect_destination"`
	SourceDirectories   []string   `toml:"source_directories"`
	Types               []TypeRule `toml:"types"`
}

// IsEnabled reports whether the rule is active. Rules are enabled unless
// explicitly disabled.
func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Config encapsulates all configuration values for sweep.
//
// Sections by subsystem:
//   - Paths: log/runtime directory
//   - Logging: log format and level
//   - Watcher: debounce and readiness timing
//   - History: sqlite move journal
//   - Notifications: ntfy push notification settings
//   - Rules: watched directories and their classification rules
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Watcher       Watcher       `toml:"watcher"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
	Rules         []Rule        `toml:"rules"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sweep/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sweep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Destination subdirectories under each watch root are created separately by
// the startup reconciliation pass.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// LogPath returns the daemon log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "sweep.log")
}

// SocketPath returns the IPC socket path.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "sweepd.sock")
}

// LockPath returns the single-instance lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "sweepd.lock")
}

// PIDPath returns the PID marker file path.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "sweep.pid")
}

// HistoryDBPath returns the sqlite move history database path.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// EnabledRules returns the subset of rules that are active.
func (c *Config) EnabledRules() []Rule {
	out := make([]Rule, 0, len(c.Rules))
	for _, rule := range c.Rules {
		if rule.IsEnabled() {
			out = append(out, rule)
		}
	}
	return out
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

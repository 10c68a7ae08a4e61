package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"sweep/internal/config"
	"sweep/internal/logging"
	"sweep/internal/notifications"
	"sweep/internal/organizer"
	"sweep/internal/rules"
)

// ReconcileResult summarizes a sweep over the source directories.
type ReconcileResult struct {
	Scanned  int
	Moved    int
	Duration time.Duration
}

// Manager runs one watcher per enabled rule and owns the reconcile pass that
// classifies files already present before watching started.
type Manager struct {
	cfg      *config.Config
	logger   *slog.Logger
	org      *organizer.Organizer
	notifier notifications.Service
	rules    []rules.WatchRule
	watchers []*Watcher
}

// NewManager compiles the enabled rules and prepares a watcher for each.
func NewManager(cfg *config.Config, logger *slog.Logger, org *organizer.Organizer, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	compiled := rules.Compile(cfg)
	m := &Manager{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "watcher")),
		org:      org,
		notifier: notifier,
		rules:    compiled,
	}
	for _, rule := range compiled {
		m.watchers = append(m.watchers, New(cfg, logger, org, rule))
	}
	return m
}

// Start reconciles existing files and then begins watching. Watchers already
// started are stopped if a later one fails.
func (m *Manager) Start(ctx context.Context) error {
	if len(m.rules) == 0 {
		m.logger.Warn("no enabled rules, nothing to watch")
		return nil
	}

	if _, err := m.Reconcile(ctx); err != nil {
		return err
	}

	var started []*Watcher
	for _, w := range m.watchers {
		if err := w.Start(ctx); err != nil {
			for _, s := range started {
				s.Stop()
			}
			return fmt.Errorf("start watcher for rule %s: %w", w.rule.Name, err)
		}
		started = append(started, w)
	}
	m.logger.Info("watching started", logging.Int("rules", len(started)))
	return nil
}

// Stop halts all watchers and waits for their loops to exit.
func (m *Manager) Stop() {
	for _, w := range m.watchers {
		w.Stop()
	}
}

// Reconcile ensures every destination directory exists, then scans each
// rule's source directories (non-recursively) and classifies the files found
// there. Files that arrived while the daemon was down get sorted here.
func (m *Manager) Reconcile(ctx context.Context) (ReconcileResult, error) {
	start := time.Now()
	var result ReconcileResult

	for _, rule := range m.rules {
		for _, dir := range rule.DestinationDirs() {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return result, fmt.Errorf("create destination %s: %w", dir, err)
			}
		}

		for _, dir := range rule.SourceDirs() {
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return result, fmt.Errorf("scan %s: %w", dir, err)
			}
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				result.Scanned++
				processed, err := m.org.Process(ctx, rule, filepath.Join(dir, entry.Name()), uuid.NewString())
				if err != nil {
					// Logged by the organizer; keep scanning.
					continue
				}
				if processed.Outcome == organizer.OutcomeMoved {
					result.Moved++
				}
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
			}
		}
	}

	result.Duration = time.Since(start)
	m.logger.Info("reconcile complete",
		logging.Int("scanned", result.Scanned),
		logging.Int("moved", result.Moved),
		logging.Duration("duration", result.Duration),
	)
	if m.notifier != nil && result.Moved > 0 {
		_ = m.notifier.NotifyReconcileCompleted(ctx, result.Scanned, result.Moved, result.Duration)
	}
	return result, nil
}

// RuleNames lists the enabled rules the manager is watching.
func (m *Manager) RuleNames() []string {
	names := make([]string, 0, len(m.rules))
	for _, rule := range m.rules {
		names = append(names, rule.Name)
	}
	return names
}

// WatchedDirs lists every directory under watch across all rules.
func (m *Manager) WatchedDirs() []string {
	var dirs []string
	for _, rule := range m.rules {
		dirs = append(dirs, rule.SourceDirs()...)
	}
	return dirs
}

// PendingCount sums paths waiting out their quiet period across watchers.
func (m *Manager) PendingCount() int {
	total := 0
	for _, w := range m.watchers {
		total += w.PendingCount()
	}
	return total
}

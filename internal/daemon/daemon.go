package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"sweep/internal/config"
	"sweep/internal/history"
	"sweep/internal/logging"
	"sweep/internal/notifications"
	"sweep/internal/organizer"
	"sweep/internal/watcher"
)

// Daemon coordinates the watchers and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *history.Store
	notifier notifications.Service
	org      *organizer.Organizer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	mu        sync.Mutex
	manager   *watcher.Manager
	startedAt time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	StartedAt     time.Time
	Rules         []string
	WatchedDirs   []string
	Pending       int
	History       history.Stats
	LockFilePath  string
	HistoryDBPath string
	LogPath       string
}

// New constructs a daemon with initialized dependencies. The history store
// may be nil when journaling is disabled.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	notifier := notifications.NewService(cfg)
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		notifier: notifier,
		org:      organizer.NewWithDependencies(cfg, logger, store, nil, notifier),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, reconciles existing files, and begins
// watching.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another sweep daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	manager := watcher.NewManager(d.cfg, d.logger, d.org, d.notifier)
	if err := manager.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start watchers: %w", err)
	}

	if err := writePIDFile(d.cfg.PIDPath()); err != nil {
		d.logger.Warn("failed to write pid file", logging.Error(err))
	}

	d.mu.Lock()
	d.manager = manager
	d.startedAt = time.Now()
	d.mu.Unlock()

	d.running.Store(true)
	d.logger.Info("sweep daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("rules", len(manager.RuleNames())),
	)
	return nil
}

// Stop halts the watchers and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	d.mu.Lock()
	manager := d.manager
	d.manager = nil
	d.mu.Unlock()
	if manager != nil {
		manager.Stop()
	}

	removePIDFile(d.cfg.PIDPath())
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("sweep daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Reconcile runs an on-demand classification pass over all source
// directories. It works whether or not watching is active.
func (d *Daemon) Reconcile(ctx context.Context) (watcher.ReconcileResult, error) {
	d.mu.Lock()
	manager := d.manager
	d.mu.Unlock()
	if manager == nil {
		manager = watcher.NewManager(d.cfg, d.logger, d.org, d.notifier)
	}
	return manager.Reconcile(ctx)
}

// HistoryList returns the most recent journaled moves.
func (d *Daemon) HistoryList(ctx context.Context, limit int) ([]history.Entry, error) {
	if d.store == nil {
		return nil, errors.New("move history disabled")
	}
	return d.store.List(ctx, limit)
}

// HistoryClear wipes the move journal.
func (d *Daemon) HistoryClear(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("move history disabled")
	}
	return d.store.Clear(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.cfg.LogPath()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           currentPID(),
		LockFilePath:  d.lockPath,
		HistoryDBPath: d.cfg.HistoryDBPath(),
		LogPath:       d.cfg.LogPath(),
	}

	d.mu.Lock()
	manager := d.manager
	status.StartedAt = d.startedAt
	d.mu.Unlock()

	if manager != nil {
		status.Rules = manager.RuleNames()
		status.WatchedDirs = manager.WatchedDirs()
		status.Pending = manager.PendingCount()
	}

	if d.store != nil {
		if stats, err := d.store.Summarize(ctx); err == nil {
			status.History = stats
		}
	}
	return status
}

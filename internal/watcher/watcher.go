package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"sweep/internal/config"
	"sweep/internal/logging"
	"sweep/internal/organizer"
	"sweep/internal/rules"
)

// drainInterval bounds how long a settled file waits before processing.
const drainInterval = 250 * time.Millisecond

type pendingFile struct {
	readyAt       time.Time
	correlationID string
}

// Watcher monitors a single rule's source directories and hands settled
// files to the organizer. Events never block on processing; paths are parked
// in a pending map until their quiet period elapses, and a ticker drains the
// map.
type Watcher struct {
	rule   rules.WatchRule
	cfg    *config.Config
	org    *organizer.Organizer
	logger *slog.Logger

	createQuiet time.Duration
	moveQuiet   time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]pendingFile

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New builds a watcher for one compiled rule.
func New(cfg *config.Config, logger *slog.Logger, org *organizer.Organizer, rule rules.WatchRule) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		rule:        rule,
		cfg:         cfg,
		org:         org,
		logger:      logger.With(logging.String(logging.FieldComponent, "watcher"), logging.String(logging.FieldRule, rule.Name)),
		createQuiet: time.Duration(cfg.Watcher.CreateQuietPeriod) * time.Second,
		moveQuiet:   time.Duration(cfg.Watcher.MoveQuietPeriod) * time.Second,
		pending:     make(map[string]pendingFile),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start registers the rule's source directories and launches the event loop.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}

	for _, dir := range w.rule.SourceDirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fsw.Close()
			return fmt.Errorf("create source directory %s: %w", dir, err)
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Info("watching directory", logging.String("directory", dir))
	}

	w.fsw = fsw
	go w.run(ctx)
	return nil
}

// Stop halts the event loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.fsw.Close()

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// handleEvent parks new arrivals and tracks in-progress writes. Only events
// whose parent is exactly one of the rule's source directories are considered;
// nested directories are never watched.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.rule.AllowsParent(filepath.Dir(event.Name)) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err != nil || info.IsDir() {
			return
		}
		// Files moved in arrive complete, so they already carry bytes and
		// settle on the shorter quiet period. Fresh downloads start empty.
		quiet := w.createQuiet
		eventType := "create"
		if info.Size() > 0 {
			quiet = w.moveQuiet
			eventType = "move"
		}
		id := uuid.NewString()
		w.park(event.Name, quiet, id)
		w.logger.Debug("file event parked",
			logging.String("path", event.Name),
			logging.String(logging.FieldEventType, eventType),
			logging.String(logging.FieldCorrelationID, id),
		)
	case event.Op.Has(fsnotify.Write):
		// A write resets the clock so growing downloads keep waiting.
		w.extend(event.Name)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.forget(event.Name)
	}
}

func (w *Watcher) park(path string, quiet time.Duration, correlationID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = pendingFile{
		readyAt:       time.Now().Add(quiet),
		correlationID: correlationID,
	}
}

func (w *Watcher) extend(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	entry, ok := w.pending[path]
	if !ok {
		return
	}
	entry.readyAt = time.Now().Add(w.createQuiet)
	w.pending[path] = entry
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, path)
}

// drain processes every parked path whose quiet period has elapsed. Files the
// organizer reports as still changing are parked again.
func (w *Watcher) drain(ctx context.Context) {
	now := time.Now()

	w.mu.Lock()
	var due []string
	for path, entry := range w.pending {
		if !entry.readyAt.After(now) {
			due = append(due, path)
		}
	}
	settled := make(map[string]pendingFile, len(due))
	for _, path := range due {
		settled[path] = w.pending[path]
		delete(w.pending, path)
	}
	w.mu.Unlock()

	for path, entry := range settled {
		result, err := w.org.Process(ctx, w.rule, path, entry.correlationID)
		if err != nil {
			// Already logged by the organizer; the file stays put.
			continue
		}
		if result.Outcome == organizer.OutcomeNotReady {
			w.park(path, w.createQuiet, entry.correlationID)
		}
	}
}

// PendingCount reports how many paths are waiting out their quiet period.
func (w *Watcher) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

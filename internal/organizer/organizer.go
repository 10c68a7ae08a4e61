package organizer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sweep/internal/config"
	"sweep/internal/history"
	"sweep/internal/logging"
	"sweep/internal/notifications"
	"sweep/internal/provenance"
	"sweep/internal/rules"
)

// Outcome reports what happened to a file handed to Process.
type Outcome string

const (
	// OutcomeSkipped covers directories, hidden files, temp files, litter,
	// and files that vanished before processing.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeNotReady means the file was still growing during the probe.
	OutcomeNotReady Outcome = "not_ready"
	// OutcomeUnmatched means no rule claimed the file; it stays put.
	OutcomeUnmatched Outcome = "unmatched"
	// OutcomeMoved means the file was relocated to its destination.
	OutcomeMoved Outcome = "moved"
)

// Result describes the disposition of a processed file.
type Result struct {
	Outcome     Outcome
	Match       rules.Match
	Destination string
}

// Names that never get classified regardless of extension.
var litterNames = map[string]struct{}{
	".DS_Store":   {},
	"Thumbs.db":   {},
	".localized":  {},
	"desktop.ini": {},
}

// Organizer classifies files against a watch rule and moves matches.
type Organizer struct {
	cfg        *config.Config
	logger     *slog.Logger
	origin     provenance.Source
	store      *history.Store
	notifier   notifications.Service
	probeDelay time.Duration
}

// New builds an organizer with the default provenance source and a noop
// notifier. The history store may be nil when journaling is disabled.
func New(cfg *config.Config, logger *slog.Logger, store *history.Store) *Organizer {
	return NewWithDependencies(cfg, logger, store, provenance.NewXattrSource(), nil)
}

// NewWithDependencies builds an organizer with explicit collaborators.
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, store *history.Store, origin provenance.Source, notifier notifications.Service) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if origin == nil {
		origin = provenance.NewXattrSource()
	}
	return &Organizer{
		cfg:        cfg,
		logger:     logger.With(logging.String(logging.FieldComponent, "organizer")),
		origin:     origin,
		store:      store,
		notifier:   notifier,
		probeDelay: time.Duration(cfg.Watcher.ReadinessProbeDelayMS) * time.Millisecond,
	}
}

// Process classifies path under rule and moves it when a match is found.
// Unmatched files are left in place. Files that disappear mid-flight are
// treated as handled elsewhere and skipped without error.
func (o *Organizer) Process(ctx context.Context, rule rules.WatchRule, path, correlationID string) (Result, error) {
	log := o.logger.With(
		logging.String(logging.FieldRule, rule.Name),
		logging.String(logging.FieldCorrelationID, correlationID),
	)

	name := filepath.Base(path)
	if reason, skip := o.shouldSkip(path, name); skip {
		if reason != "" {
			log.Debug("skipping file", logging.String("file", name), logging.String("reason", reason))
		}
		return Result{Outcome: OutcomeSkipped}, nil
	}

	ready, err := o.waitUntilStable(ctx, path)
	if err != nil {
		return Result{}, err
	}
	if !ready {
		log.Debug("file still changing, deferring", logging.String("file", name))
		return Result{Outcome: OutcomeNotReady}, nil
	}

	match, ok := o.classify(rule, path, name)
	if !ok {
		log.Debug("no rule matched, leaving in place", logging.String("file", name))
		return Result{Outcome: OutcomeUnmatched}, nil
	}

	destination, err := o.move(path, match.Destination)
	if err != nil {
		log.Error("move failed, leaving file in place",
			logging.String("file", name),
			logging.String("destination", match.Destination),
			logging.Error(err),
		)
		if o.notifier != nil {
			_ = o.notifier.NotifyError(ctx, err, "moving "+name)
		}
		return Result{}, err
	}

	attrs := []any{
		logging.String("file", name),
		logging.String("destination", destination),
	}
	if match.Kind == rules.MatchRedirect {
		attrs = append(attrs, logging.String("domain", match.Domain))
	} else {
		attrs = append(attrs, logging.String(logging.FieldTypeRule, match.TypeRule))
	}
	log.Info("moved file", attrs...)

	o.record(ctx, log, rule, match, path, destination, correlationID)
	if o.notifier != nil {
		_ = o.notifier.NotifyFileMoved(ctx, rule.Name, name, filepath.Dir(destination))
	}

	return Result{Outcome: OutcomeMoved, Match: match, Destination: destination}, nil
}

// shouldSkip filters out entries that are never classified. The returned
// reason is empty for silent skips such as vanished files.
func (o *Organizer) shouldSkip(path, name string) (string, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		// Vanished or unreadable; nothing for us to do.
		return "", true
	}
	if info.IsDir() {
		return "directory", true
	}
	if !info.Mode().IsRegular() {
		return "not a regular file", true
	}
	if strings.HasPrefix(name, ".") {
		if _, litter := litterNames[name]; !litter {
			return "hidden file", true
		}
	}
	if _, ok := litterNames[name]; ok {
		return "system litter", true
	}
	lower := strings.ToLower(name)
	for _, suffix := range o.cfg.Watcher.TempSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return "temporary file", true
		}
	}
	return "", false
}

// waitUntilStable samples the file size twice across the probe delay. A
// matching pair of samples counts as ready; zero-byte files qualify on the
// first stable pair.
func (o *Organizer) waitUntilStable(ctx context.Context, path string) (bool, error) {
	before, err := os.Lstat(path)
	if err != nil {
		return false, nil
	}

	if !sleepContext(ctx, o.probeDelay) {
		return false, ctx.Err()
	}

	after, err := os.Lstat(path)
	if err != nil {
		return false, nil
	}
	return before.Size() == after.Size(), nil
}

// classify resolves the match for a file. Download provenance wins over
// extension rules when a redirect domain matches.
func (o *Organizer) classify(rule rules.WatchRule, path, name string) (rules.Match, bool) {
	if originURL, ok := o.origin.OriginURL(path); ok {
		if match, matched := rule.MatchRedirectURL(originURL); matched {
			return match, true
		}
	}
	return rule.MatchTypeRule(name)
}

func (o *Organizer) record(ctx context.Context, log *slog.Logger, rule rules.WatchRule, match rules.Match, source, destination, correlationID string) {
	if o.store == nil {
		return
	}
	entry := history.Entry{
		Source:        source,
		Destination:   destination,
		Rule:          rule.Name,
		TypeRule:      match.TypeRule,
		MatchKind:     string(match.Kind),
		Domain:        match.Domain,
		CorrelationID: correlationID,
		MovedAt:       time.Now(),
	}
	if _, err := o.store.RecordMove(ctx, entry); err != nil {
		log.Warn("failed to journal move", logging.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

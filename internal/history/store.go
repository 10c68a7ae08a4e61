package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sweep/internal/config"
)

// Store persists move entries in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database for the configuration.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.HistoryDBPath())
}

// OpenPath opens a history database at an explicit filesystem path.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// A single writer keeps SQLite happy under concurrent reads.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path reports the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS moves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		destination TEXT NOT NULL,
		rule TEXT NOT NULL,
		type_rule TEXT NOT NULL DEFAULT '',
		match_kind TEXT NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		correlation_id TEXT NOT NULL DEFAULT '',
		moved_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_moves_moved_at ON moves(moved_at)`,
	`CREATE INDEX IF NOT EXISTS idx_moves_rule ON moves(rule)`,
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, i+1, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}
	return nil
}

// RecordMove appends a completed move to the journal.
func (s *Store) RecordMove(ctx context.Context, entry Entry) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	movedAt := entry.MovedAt
	if movedAt.IsZero() {
		movedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO moves (source, destination, rule, type_rule, match_kind, domain, correlation_id, moved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Source, entry.Destination, entry.Rule, entry.TypeRule, entry.MatchKind,
		entry.Domain, entry.CorrelationID, movedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("record move: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read move id: %w", err)
	}
	return id, nil
}

// List returns the most recent moves, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := `SELECT id, source, destination, rule, type_rule, match_kind, domain, correlation_id, moved_at
		FROM moves ORDER BY moved_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var movedAt string
		if err := rows.Scan(&entry.ID, &entry.Source, &entry.Destination, &entry.Rule,
			&entry.TypeRule, &entry.MatchKind, &entry.Domain, &entry.CorrelationID, &movedAt); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, movedAt); err == nil {
			entry.MovedAt = parsed
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear deletes the whole journal and reports how many entries were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM moves`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared history: %w", err)
	}
	return removed, nil
}

// Summarize reports aggregate counts for the status surface.
func (s *Store) Summarize(ctx context.Context) (Stats, error) {
	stats := Stats{ByKind: make(map[string]int64)}
	if s == nil || s.db == nil {
		return stats, nil
	}
	stats.StorePath = s.path

	rows, err := s.db.QueryContext(ctx, `SELECT match_kind, COUNT(*) FROM moves GROUP BY match_kind`)
	if err != nil {
		return stats, fmt.Errorf("summarize history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return stats, fmt.Errorf("scan history summary: %w", err)
		}
		stats.ByKind[kind] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(moved_at) FROM moves`).Scan(&last); err != nil {
		return stats, fmt.Errorf("read last move time: %w", err)
	}
	if last.Valid {
		if parsed, err := time.Parse(time.RFC3339Nano, last.String); err == nil {
			stats.LastMove = parsed
			stats.HasMoves = true
		}
	}
	return stats, nil
}

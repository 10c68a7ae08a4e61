// Package history journals completed file moves to a local SQLite database.
package history

import "time"

// Entry records a single completed move.
type Entry struct {
	ID            int64
	Source        string
	Destination   string
	Rule          string
	TypeRule      string
	MatchKind     string
	Domain        string
	CorrelationID string
	MovedAt       time.Time
}

// Stats summarizes the journal contents.
type Stats struct {
	Total     int64
	ByKind    map[string]int64
	LastMove  time.Time
	HasMoves  bool
	StorePath string
}

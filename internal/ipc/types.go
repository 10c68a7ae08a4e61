package ipc

import "time"

// StartRequest triggers watcher startup.
type StartRequest struct{}

// StartResponse indicates whether watching was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops watching.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/watcher status information.
type StatusResponse struct {
	Running       bool             `json:"running"`
	PID           int              `json:"pid"`
	StartedAt     time.Time        `json:"started_at"`
	Rules         []string         `json:"rules"`
	WatchedDirs   []string         `json:"watched_dirs"`
	Pending       int              `json:"pending"`
	TotalMoves    int64            `json:"total_moves"`
	MovesByKind   map[string]int64 `json:"moves_by_kind"`
	LastMove      time.Time        `json:"last_move"`
	HasMoves      bool             `json:"has_moves"`
	LockPath      string           `json:"lock_path"`
	HistoryDBPath string           `json:"history_db_path"`
	LogPath       string           `json:"log_path"`
}

// ReconcileRequest triggers an on-demand classification pass.
type ReconcileRequest struct{}

// ReconcileResponse summarizes a reconcile pass.
type ReconcileResponse struct {
	Scanned    int   `json:"scanned"`
	Moved      int   `json:"moved"`
	DurationMS int64 `json:"duration_ms"`
}

// HistoryEntry mirrors a journaled move for IPC callers.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	Rule          string    `json:"rule"`
	TypeRule      string    `json:"type_rule"`
	MatchKind     string    `json:"match_kind"`
	Domain        string    `json:"domain"`
	CorrelationID string    `json:"correlation_id"`
	MovedAt       time.Time `json:"moved_at"`
}

// HistoryListRequest fetches recent moves. A non-positive limit returns all.
type HistoryListRequest struct {
	Limit int `json:"limit"`
}

// HistoryListResponse contains journaled moves, newest first.
type HistoryListResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// HistoryClearRequest wipes the move journal.
type HistoryClearRequest struct{}

// HistoryClearResponse reports number of removed entries.
type HistoryClearResponse struct {
	Removed int64 `json:"removed"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

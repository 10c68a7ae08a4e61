package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestRecordAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := Entry{
		Source:        "/downloads/a.pdf",
		Destination:   "/documents/a.pdf",
		Rule:          "Downloads",
		TypeRule:      "Documents",
		MatchKind:     "type",
		CorrelationID: "corr-1",
		MovedAt:       time.Now().Add(-time.Minute),
	}
	second := Entry{
		Source:      "/downloads/meme.png",
		Destination: "/tmp/meme.png",
		Rule:        "Downloads",
		MatchKind:   "redirect",
		Domain:      "imgur.com",
		MovedAt:     time.Now(),
	}

	if _, err := store.RecordMove(ctx, first); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}
	if _, err := store.RecordMove(ctx, second); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Source != second.Source {
		t.Errorf("entries[0].Source = %q, want %q", entries[0].Source, second.Source)
	}
	if entries[1].TypeRule != "Documents" {
		t.Errorf("entries[1].TypeRule = %q", entries[1].TypeRule)
	}
	if entries[0].Domain != "imgur.com" {
		t.Errorf("entries[0].Domain = %q", entries[0].Domain)
	}
}

func TestListLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := Entry{
			Source:      "/downloads/file.txt",
			Destination: "/sorted/file.txt",
			Rule:        "Downloads",
			MatchKind:   "type",
			MovedAt:     time.Now().Add(time.Duration(i) * time.Second),
		}
		if _, err := store.RecordMove(ctx, entry); err != nil {
			t.Fatalf("RecordMove: %v", err)
		}
	}

	entries, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.RecordMove(ctx, Entry{Source: "/a", Destination: "/b", Rule: "r", MatchKind: "type"}); err != nil {
			t.Fatalf("RecordMove: %v", err)
		}
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 3 {
		t.Fatalf("Clear removed %d entries, want 3", removed)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty journal after clear, got %d entries", len(entries))
	}
}

func TestSummarize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	kinds := []string{"type", "type", "redirect"}
	for _, kind := range kinds {
		if _, err := store.RecordMove(ctx, Entry{Source: "/a", Destination: "/b", Rule: "r", MatchKind: kind}); err != nil {
			t.Fatalf("RecordMove: %v", err)
		}
	}

	stats, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.ByKind["type"] != 2 || stats.ByKind["redirect"] != 1 {
		t.Errorf("ByKind = %v", stats.ByKind)
	}
	if !stats.HasMoves {
		t.Error("HasMoves = false after recording moves")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := store.RecordMove(context.Background(), Entry{Source: "/a", Destination: "/b", Rule: "r", MatchKind: "type"}); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected entry to survive reopen, got %d", len(entries))
	}
}

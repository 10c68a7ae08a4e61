package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sweep/internal/config"
	"sweep/internal/history"
	"sweep/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Watcher.CreateQuietPeriod = 0
	cfg.Watcher.MoveQuietPeriod = 0
	cfg.Watcher.ReadinessProbeDelayMS = 5
	cfg.Rules = []config.Rule{{
		Name:                "Downloads",
		WatchDirectory:      t.TempDir(),
		RedirectDestination: "tmp",
		SourceDirectories:   []string{"."},
		Types: []config.TypeRule{
			{Name: "Documents", Extensions: []string{".txt"}, Destination: "Documents"},
		},
	}}
	return &cfg
}

func TestStartStopLifecycle(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status := d.Status(context.Background())
	if !status.Running {
		t.Error("Status.Running = false after Start")
	}
	if len(status.Rules) != 1 || status.Rules[0] != "Downloads" {
		t.Errorf("Status.Rules = %v", status.Rules)
	}
	if _, err := os.Stat(cfg.PIDPath()); err != nil {
		t.Errorf("pid file not written: %v", err)
	}

	if err := d.Start(context.Background()); err == nil {
		t.Error("second Start should fail while running")
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Error("Status.Running = true after Stop")
	}
	if _, err := os.Stat(cfg.PIDPath()); !os.IsNotExist(err) {
		t.Error("pid file not removed after Stop")
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(cfg, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer first.Close()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second, err := New(cfg, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer second.Close()
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon instance should fail to acquire the lock")
	}
}

func TestStartReconcilesExistingFiles(t *testing.T) {
	cfg := testConfig(t)
	watchDir := cfg.Rules[0].WatchDirectory

	source := filepath.Join(watchDir, "pending.txt")
	if err := os.WriteFile(source, []byte("left over"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := New(cfg, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	moved := filepath.Join(watchDir, "Documents", "pending.txt")
	if _, err := os.Stat(moved); err != nil {
		t.Fatalf("startup reconcile did not move existing file: %v", err)
	}
}

func TestReconcileWithoutRunning(t *testing.T) {
	cfg := testConfig(t)
	watchDir := cfg.Rules[0].WatchDirectory
	if err := os.WriteFile(filepath.Join(watchDir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := New(cfg, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	result, err := d.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Moved != 1 {
		t.Errorf("Moved = %d, want 1", result.Moved)
	}
}

func TestHistoryPassthrough(t *testing.T) {
	cfg := testConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}

	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if _, err := store.RecordMove(context.Background(), history.Entry{
		Source: "/a", Destination: "/b", Rule: "Downloads", MatchKind: "type", MovedAt: time.Now(),
	}); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}

	entries, err := d.HistoryList(context.Background(), 10)
	if err != nil {
		t.Fatalf("HistoryList: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	removed, err := d.HistoryClear(context.Background())
	if err != nil {
		t.Fatalf("HistoryClear: %v", err)
	}
	if removed != 1 {
		t.Errorf("HistoryClear removed %d, want 1", removed)
	}
}

func TestHistoryDisabled(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if _, err := d.HistoryList(context.Background(), 10); err == nil {
		t.Error("HistoryList should fail when the journal is disabled")
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent {
		t.Error("notification reported sent without a configured topic")
	}
	if message == "" {
		t.Error("expected explanatory message")
	}
}

func TestReadPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.pid")
	if err := os.WriteFile(path, []byte("12345\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pid, err := ReadPIDFile(path)
	if err != nil {
		t.Fatalf("ReadPIDFile: %v", err)
	}
	if pid != 12345 {
		t.Errorf("pid = %d, want 12345", pid)
	}

	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPIDFile(path); err == nil {
		t.Error("expected error for malformed pid file")
	}
}

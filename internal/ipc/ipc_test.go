package ipc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sweep/internal/config"
	"sweep/internal/daemon"
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

func newTestClient(t *testing.T, cfg *config.Config, store *history.Store) *Client {
	t.Helper()

	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	// Unix socket paths have a tight length limit; keep it short.
	dir, err := os.MkdirTemp("", "sweep-ipc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	socketPath := filepath.Join(dir, "s.sock")

	server, err := NewServer(context.Background(), socketPath, d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("unix sockets not permitted in this environment: %v", err)
		}
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestStartStatusStopRoundTrip(t *testing.T) {
	client := newTestClient(t, testConfig(t), nil)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Error("daemon should not be running before Start")
	}

	started, err := client.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !started.Started {
		t.Fatalf("Start failed: %s", started.Message)
	}

	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Error("daemon should be running after Start")
	}
	if len(status.Rules) != 1 || status.Rules[0] != "Downloads" {
		t.Errorf("Rules = %v", status.Rules)
	}
	if status.PID <= 0 {
		t.Errorf("PID = %d", status.PID)
	}

	stopped, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !stopped.Stopped {
		t.Error("Stop reported failure")
	}

	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Error("daemon should not be running after Stop")
	}
}

func TestReconcileOverIPC(t *testing.T) {
	cfg := testConfig(t)
	watchDir := cfg.Rules[0].WatchDirectory
	if err := os.WriteFile(filepath.Join(watchDir, "stale.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := newTestClient(t, cfg, nil)

	result, err := client.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Scanned != 1 || result.Moved != 1 {
		t.Errorf("Reconcile = %+v, want 1 scanned / 1 moved", result)
	}
	if _, err := os.Stat(filepath.Join(watchDir, "Documents", "stale.txt")); err != nil {
		t.Errorf("reconciled file missing: %v", err)
	}
}

func TestHistoryOverIPC(t *testing.T) {
	cfg := testConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}

	client := newTestClient(t, cfg, store)

	if _, err := store.RecordMove(context.Background(), history.Entry{
		Source: "/dl/a.txt", Destination: "/dl/Documents/a.txt", Rule: "Downloads", MatchKind: "type",
	}); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}

	list, err := client.HistoryList(10)
	if err != nil {
		t.Fatalf("HistoryList: %v", err)
	}
	if len(list.Entries) != 1 || list.Entries[0].Rule != "Downloads" {
		t.Fatalf("Entries = %+v", list.Entries)
	}

	cleared, err := client.HistoryClear()
	if err != nil {
		t.Fatalf("HistoryClear: %v", err)
	}
	if cleared.Removed != 1 {
		t.Errorf("Removed = %d, want 1", cleared.Removed)
	}
}

func TestLogTailOverIPC(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.LogPath(), []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := newTestClient(t, cfg, nil)

	resp, err := client.LogTail(LogTailRequest{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("LogTail: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[1] != "line two" {
		t.Fatalf("Lines = %v", resp.Lines)
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	client := newTestClient(t, testConfig(t), nil)

	resp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if resp.Sent {
		t.Error("notification reported sent without a configured topic")
	}
}

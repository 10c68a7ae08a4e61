package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sweep/internal/config"
)

type recorded struct {
	title    string
	tags     string
	priority string
	body     string
}

func newTestService(t *testing.T, moves, errors bool) (Service, *[]recorded) {
	t.Helper()

	var got []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, recorded{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Moves = moves
	cfg.Notifications.Errors = errors
	return NewService(&cfg), &got
}

func TestNotifyFileMoved(t *testing.T) {
	svc, got := newTestService(t, true, true)

	err := svc.NotifyFileMoved(context.Background(), "Downloads", "report.pdf", "/home/user/Documents")
	if err != nil {
		t.Fatalf("NotifyFileMoved: %v", err)
	}

	if len(*got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*got))
	}
	req := (*got)[0]
	if req.title != "Sweep - File Moved" {
		t.Errorf("title = %q", req.title)
	}
	if !strings.Contains(req.body, "report.pdf") || !strings.Contains(req.body, "/home/user/Documents") {
		t.Errorf("body missing move details: %q", req.body)
	}
}

func TestNotifyFileMovedDisabled(t *testing.T) {
	svc, got := newTestService(t, false, true)

	if err := svc.NotifyFileMoved(context.Background(), "Downloads", "a.txt", "/tmp"); err != nil {
		t.Fatalf("NotifyFileMoved: %v", err)
	}
	if len(*got) != 0 {
		t.Fatalf("disabled move notifications still sent %d requests", len(*got))
	}
}

func TestNotifyErrorPriority(t *testing.T) {
	svc, got := newTestService(t, true, true)

	err := svc.NotifyError(context.Background(), io.ErrUnexpectedEOF, "watcher")
	if err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if len(*got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*got))
	}
	if (*got)[0].priority != "high" {
		t.Errorf("priority = %q, want high", (*got)[0].priority)
	}
	if !strings.Contains((*got)[0].body, "watcher") {
		t.Errorf("body missing context label: %q", (*got)[0].body)
	}
}

func TestNotifyReconcileCompleted(t *testing.T) {
	svc, got := newTestService(t, true, true)

	err := svc.NotifyReconcileCompleted(context.Background(), 12, 4, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("NotifyReconcileCompleted: %v", err)
	}
	if len(*got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*got))
	}
	body := (*got)[0].body
	if !strings.Contains(body, "12") || !strings.Contains(body, "4") {
		t.Errorf("body missing counts: %q", body)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestNoopServiceWithoutTopic(t *testing.T) {
	cfg := config.Default()
	svc := NewService(&cfg)

	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service when topic unset, got %T", svc)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop TestNotification: %v", err)
	}
}

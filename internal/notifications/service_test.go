package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medley/internal/config"
	"medley/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCapturingService(t *testing.T) (notifications.Service, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	return notifications.NewService(&cfg), got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyFileApplied(context.Background(), "/library/show.mkv"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyFileApplied(t *testing.T) {
	svc, got := newCapturingService(t)

	if err := svc.NotifyFileApplied(context.Background(), "/library/show.mkv"); err != nil {
		t.Fatalf("NotifyFileApplied: %v", err)
	}
	if got.title != "Medley - Applied" {
		t.Fatalf("unexpected title %q", got.title)
	}
	if !strings.Contains(got.body, "show.mkv") {
		t.Fatalf("expected file name in body, got %q", got.body)
	}
	if got.priority != "" {
		t.Fatalf("expected default priority, got %q", got.priority)
	}
}

func TestNotifyFileFailedEscalatesPriority(t *testing.T) {
	svc, got := newCapturingService(t)

	err := svc.NotifyFileFailed(context.Background(), "/library/show.mkv", errors.New("mkvpropedit exited 2"))
	if err != nil {
		t.Fatalf("NotifyFileFailed: %v", err)
	}
	if got.priority != "high" {
		t.Fatalf("expected high priority, got %q", got.priority)
	}
	if !strings.Contains(got.body, "mkvpropedit exited 2") {
		t.Fatalf("expected cause in body, got %q", got.body)
	}
	if !strings.Contains(got.tags, "error") {
		t.Fatalf("expected error tag, got %q", got.tags)
	}
}

func TestNotifySweepCompleted(t *testing.T) {
	svc, got := newCapturingService(t)

	if err := svc.NotifySweepCompleted(context.Background(), 12); err != nil {
		t.Fatalf("NotifySweepCompleted: %v", err)
	}
	if !strings.Contains(got.body, "12 files") {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestSendSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("denied"))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}

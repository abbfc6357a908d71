package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"medley/internal/config"
)

const userAgent = "Medley/0.1.0"

// Service defines the notification surface exposed to daemon components.
type Service interface {
	NotifyFileApplied(ctx context.Context, path string) error
	NotifyFileFailed(ctx context.Context, path string, cause error) error
	NotifySweepCompleted(ctx context.Context, enqueued int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyFileApplied(ctx context.Context, path string) error {
	data := payload{
		title:   "Medley - Applied",
		message: fmt.Sprintf("Policy applied: %s", filepath.Base(path)),
		tags:    []string{"medley", "apply", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyFileFailed(ctx context.Context, path string, cause error) error {
	var builder strings.Builder
	builder.WriteString("Failed: ")
	builder.WriteString(filepath.Base(path))
	builder.WriteString("\n")
	if cause != nil {
		builder.WriteString(strings.TrimSpace(cause.Error()))
	} else {
		builder.WriteString("unknown error")
	}

	data := payload{
		title:    "Medley - Error",
		message:  builder.String(),
		tags:     []string{"medley", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySweepCompleted(ctx context.Context, enqueued int) error {
	data := payload{
		title:   "Medley - Sweep Complete",
		message: fmt.Sprintf("Library sweep queued %d files", enqueued),
		tags:    []string{"medley", "sweep", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Medley - Test",
		message:  "Notification system test",
		tags:     []string{"medley", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyFileApplied(context.Context, string) error       { return nil }
func (noopService) NotifyFileFailed(context.Context, string, error) error { return nil }
func (noopService) NotifySweepCompleted(context.Context, int) error       { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }

package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"plextagger/internal/config"
	"plextagger/internal/scan"
)

const userAgent = "plextagger-go/0.1.0"

// Service defines the notification surface exposed to the daemon and CLI.
type Service interface {
	NotifyScanCompleted(ctx context.Context, report scan.Report) error
	NotifyScanFailed(ctx context.Context, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
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

// NotifyScanCompleted only publishes when the run changed or failed
// something; a sweep with nothing new stays quiet.
func (n *ntfyService) NotifyScanCompleted(ctx context.Context, report scan.Report) error {
	s := report.Summary
	if s.Standup == 0 && s.NotStandup == 0 && s.Failed == 0 && s.ConflictsResolved == 0 {
		return nil
	}
	duration := report.Duration().Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var message strings.Builder
	fmt.Fprintf(&message, "Scanned %d items in %s\n", s.Processed, duration)
	fmt.Fprintf(&message, "🎤 Stand-up: %d\n", s.Standup)
	fmt.Fprintf(&message, "🎬 Not stand-up: %d\n", s.NotStandup)
	fmt.Fprintf(&message, "❔ Unknown: %d", s.Unknown)
	if s.ConflictsResolved > 0 {
		fmt.Fprintf(&message, "\n🔧 Conflicts resolved: %d", s.ConflictsResolved)
	}

	data := payload{
		title:   "plextagger - Scan Complete",
		message: message.String(),
		tags:    []string{"plextagger", "scan", "completed"},
	}
	if s.Failed > 0 {
		data.title = "plextagger - Scan Complete (with errors)"
		fmt.Fprintf(&message, "\n❌ Failed: %d", s.Failed)
		data.message = message.String()
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScanFailed(ctx context.Context, err error) error {
	var builder strings.Builder
	builder.WriteString("❌ Scan aborted: ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "plextagger - Error",
		message:  builder.String(),
		tags:     []string{"plextagger", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "plextagger - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"plextagger", "test"},
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

func (noopService) NotifyScanCompleted(context.Context, scan.Report) error { return nil }
func (noopService) NotifyScanFailed(context.Context, error) error         { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }

package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"plextagger/internal/config"
	"plextagger/internal/notifications"
	"plextagger/internal/scan"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfy(t *testing.T, status int) (*config.Config, chan captured) {
	t.Helper()
	requests := make(chan captured, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL + "/plextagger"
	return &cfg, requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyScanFailed(context.Background(), errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyScanCompleted(t *testing.T) {
	cfg, requests := newNtfy(t, http.StatusOK)
	svc := notifications.NewService(cfg)
	started := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	report := scan.Report{
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Summary:    scan.Summary{Processed: 12, Skipped: 8, Standup: 1, NotStandup: 2, Unknown: 1},
	}
	if err := svc.NotifyScanCompleted(context.Background(), report); err != nil {
		t.Fatalf("NotifyScanCompleted returned error: %v", err)
	}
	got := <-requests
	if got.title != "plextagger - Scan Complete" || got.tags != "plextagger,scan,completed" {
		t.Fatalf("unexpected headers %+v", got)
	}
	for _, want := range []string{"Scanned 12 items in 1m30s", "Stand-up: 1", "Not stand-up: 2", "Unknown: 1"} {
		if !strings.Contains(got.body, want) {
			t.Fatalf("body missing %q: %q", want, got.body)
		}
	}
}

func TestNotifyScanCompletedWithFailures(t *testing.T) {
	cfg, requests := newNtfy(t, http.StatusOK)
	svc := notifications.NewService(cfg)
	report := scan.Report{Summary: scan.Summary{Processed: 3, Failed: 2, Standup: 1}}
	if err := svc.NotifyScanCompleted(context.Background(), report); err != nil {
		t.Fatalf("NotifyScanCompleted returned error: %v", err)
	}
	got := <-requests
	if !strings.Contains(got.title, "with errors") || !strings.Contains(got.body, "Failed: 2") {
		t.Fatalf("unexpected notification %+v", got)
	}
}

func TestNotifyScanCompletedQuietWhenNothingChanged(t *testing.T) {
	cfg, requests := newNtfy(t, http.StatusOK)
	svc := notifications.NewService(cfg)
	report := scan.Report{Summary: scan.Summary{Processed: 5, Skipped: 4, Unknown: 1}}
	if err := svc.NotifyScanCompleted(context.Background(), report); err != nil {
		t.Fatalf("NotifyScanCompleted returned error: %v", err)
	}
	select {
	case got := <-requests:
		t.Fatalf("expected no notification, got %+v", got)
	default:
	}
}

func TestNotifyScanFailed(t *testing.T) {
	cfg, requests := newNtfy(t, http.StatusOK)
	svc := notifications.NewService(cfg)
	if err := svc.NotifyScanFailed(context.Background(), errors.New("catalog fetch failed: http 503")); err != nil {
		t.Fatalf("NotifyScanFailed returned error: %v", err)
	}
	got := <-requests
	if got.priority != "high" || !strings.Contains(got.body, "http 503") {
		t.Fatalf("unexpected notification %+v", got)
	}
}

func TestNtfyErrorStatus(t *testing.T) {
	cfg, _ := newNtfy(t, http.StatusForbidden)
	svc := notifications.NewService(cfg)
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

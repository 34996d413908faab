package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"timetable/internal/config"
	"timetable/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, <-chan captured) {
	t.Helper()
	ch := make(chan captured, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifySyncFailed(context.Background(), "source_unavailable", "boom", time.Minute); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectBody     []string
		expectTags     string
		expectPriority string
	}{
		{
			name: "sync failed",
			send: func(s notifications.Service) error {
				return s.NotifySyncFailed(context.Background(), "source_unavailable", "primary: connection refused", 15*time.Minute)
			},
			expectTitle:    "Timetable - Sync Failed",
			expectBody:     []string{"Scheduled sync failed (source_unavailable): primary: connection refused", "Retrying in 15m0s"},
			expectTags:     "timetable,sync,warning",
			expectPriority: "high",
		},
		{
			name: "sync recovered",
			send: func(s notifications.Service) error {
				return s.NotifySyncRecovered(context.Background(), "fallback", 2*time.Hour)
			},
			expectTitle: "Timetable - Sync Recovered",
			expectBody:  []string{"Scheduled sync succeeded again via fallback after 2h0m0s of failures"},
			expectTags:  "timetable,sync,recovered",
		},
		{
			name: "test",
			send: func(s notifications.Service) error {
				return s.TestNotification(context.Background())
			},
			expectTitle:    "Timetable - Test",
			expectBody:     []string{"Notification system test"},
			expectTags:     "timetable,test",
			expectPriority: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, ch := newNtfyServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = srv.URL + "/timetable"
			svc := notifications.NewService(&cfg)

			if err := tt.send(svc); err != nil {
				t.Fatalf("send: %v", err)
			}
			got := <-ch
			if got.title != tt.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tt.expectTitle)
			}
			for _, want := range tt.expectBody {
				if !strings.Contains(got.body, want) {
					t.Fatalf("body %q missing %q", got.body, want)
				}
			}
			if got.tags != tt.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tt.expectTags)
			}
			if got.priority != tt.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tt.expectPriority)
			}
		})
	}
}

func TestNtfyServiceReportsRejectedRequest(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"timetable/internal/config"
)

// Service is the notification surface used by the daemon.
type Service interface {
	NotifySyncFailed(ctx context.Context, code, reason string, retryIn time.Duration) error
	NotifySyncRecovered(ctx context.Context, source string, failedFor time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op one when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		userAgent: cfg.HTTP.UserAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

func (n *ntfyService) NotifySyncFailed(ctx context.Context, code, reason string, retryIn time.Duration) error {
	var b strings.Builder
	b.WriteString("Scheduled sync failed")
	if code = strings.TrimSpace(code); code != "" {
		fmt.Fprintf(&b, " (%s)", code)
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		b.WriteString(": ")
		b.WriteString(reason)
	}
	if retryIn > 0 {
		fmt.Fprintf(&b, "\nRetrying in %s. Cached timetables are still served.", retryIn.Round(time.Second))
	}
	return n.send(ctx, payload{
		title:    "Timetable - Sync Failed",
		message:  b.String(),
		tags:     []string{"timetable", "sync", "warning"},
		priority: "high",
	})
}

func (n *ntfyService) NotifySyncRecovered(ctx context.Context, source string, failedFor time.Duration) error {
	message := "Scheduled sync succeeded again"
	if source = strings.TrimSpace(source); source != "" {
		message += " via " + source
	}
	if failedFor > 0 {
		message += fmt.Sprintf(" after %s of failures", failedFor.Round(time.Minute))
	}
	return n.send(ctx, payload{
		title:   "Timetable - Sync Recovered",
		message: message,
		tags:    []string{"timetable", "sync", "recovered"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Timetable - Test",
		message:  "Notification system test",
		tags:     []string{"timetable", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}
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

func (noopService) NotifySyncFailed(context.Context, string, string, time.Duration) error { return nil }
func (noopService) NotifySyncRecovered(context.Context, string, time.Duration) error      { return nil }
func (noopService) TestNotification(context.Context) error                                { return nil }

package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podscribe/internal/config"
)

const userAgent = "podscribe/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventJobSubmitted      Event = "job_submitted"
	EventJobCompleted      Event = "job_completed"
	EventJobFailed         Event = "job_failed"
	EventPollPassCompleted Event = "poll_pass_completed"
	EventTest              Event = "test"
)

// Payload carries event fields such as "handle", "episode" or "error".
type Payload map[string]any

// Service publishes workflow events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

// render returns false for events that are not delivered.
func render(event Event, payload Payload) (message, bool) {
	handle := payload.text("handle")
	label := handle
	if episode := payload.text("episode"); episode != "" {
		label = fmt.Sprintf("%s (%s)", episode, handle)
	}

	switch event {
	case EventJobSubmitted:
		return message{
			title: "Podscribe - Submitted",
			body:  fmt.Sprintf("Transcription started: %s", label),
			tags:  []string{"podscribe", "submit"},
		}, true
	case EventJobCompleted:
		body := fmt.Sprintf("Transcript ready: %s", label)
		if words := payload.number("words"); words > 0 {
			body = fmt.Sprintf("%s\n%d words", body, words)
		}
		return message{
			title: "Podscribe - Transcript Ready",
			body:  body,
			tags:  []string{"podscribe", "transcript", "completed"},
		}, true
	case EventJobFailed:
		reason := payload.text("error")
		if reason == "" {
			reason = "unknown"
		}
		return message{
			title:    "Podscribe - Job Failed",
			body:     fmt.Sprintf("Transcription failed: %s\n%s", label, reason),
			tags:     []string{"podscribe", "error", "alert"},
			priority: "high",
		}, true
	case EventPollPassCompleted:
		// Per-job events already cover passes that changed something.
		return message{}, false
	case EventTest:
		return message{
			title:    "Podscribe - Test",
			body:     "Notification system test",
			tags:     []string{"podscribe", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return ""
	}
}

func (p Payload) number(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

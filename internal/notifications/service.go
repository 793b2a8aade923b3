package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"triage/internal/config"
)

const userAgent = "Triage-Go/0.1.0"

// Event identifies a notification milestone.
type Event string

const (
	EventCriticalFeedback Event = "critical_feedback"
	EventJobFailed        Event = "job_failed"
	EventTest             Event = "test"
)

// Payload carries per-event message fields.
type Payload map[string]string

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewNop returns a service that discards every event.
func NewNop() Service {
	return noopService{}
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

// Publish formats and sends the event to the configured ntfy topic.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, err := formatMessage(event, payload)
	if err != nil {
		return err
	}
	return n.send(ctx, msg)
}

func formatMessage(event Event, payload Payload) (message, error) {
	get := func(key string) string {
		return strings.TrimSpace(payload[key])
	}

	switch event {
	case EventCriticalFeedback:
		source := get("source")
		if source == "" {
			source = "unknown"
		}
		category := get("category")
		if category == "" {
			category = "uncategorized"
		}
		body := fmt.Sprintf("Critical %s feedback (%s): %s", source, category, get("excerpt"))
		return message{
			title:    "Triage - Critical Feedback",
			body:     body,
			tags:     []string{"triage", "critical", source},
			priority: "urgent",
		}, nil
	case EventJobFailed:
		var builder strings.Builder
		builder.WriteString("Job failed")
		if jobID := get("jobID"); jobID != "" {
			builder.WriteString(" ")
			builder.WriteString(jobID)
		}
		if step := get("step"); step != "" {
			builder.WriteString(" at step ")
			builder.WriteString(step)
		}
		builder.WriteString(": ")
		if reason := get("error"); reason != "" {
			builder.WriteString(reason)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Triage - Job Failed",
			body:     builder.String(),
			tags:     []string{"triage", "error", "job"},
			priority: "high",
		}, nil
	case EventTest:
		return message{
			title:    "Triage - Test",
			body:     "Notification system test",
			tags:     []string{"triage", "test"},
			priority: "low",
		}, nil
	default:
		return message{}, fmt.Errorf("unknown notification event %q", event)
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

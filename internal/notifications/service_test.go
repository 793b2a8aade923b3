package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"triage/internal/notifications"
	"triage/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(cfg)
	err := svc.Publish(context.Background(), notifications.EventCriticalFeedback, notifications.Payload{"source": "discord"})
	if err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsEvents(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "critical feedback",
			event: notifications.EventCriticalFeedback,
			payload: notifications.Payload{
				"source":   "support",
				"category": "outage",
				"excerpt":  "nothing loads",
			},
			expectTitle:    "Triage - Critical Feedback",
			expectBody:     "Critical support feedback (outage): nothing loads",
			expectTags:     "triage,critical,support",
			expectPriority: "urgent",
		},
		{
			name:  "job failed",
			event: notifications.EventJobFailed,
			payload: notifications.Payload{
				"jobID": "abc-123",
				"step":  "classify",
				"error": "model unreachable",
			},
			expectTitle:    "Triage - Job Failed",
			expectBody:     "Job failed abc-123 at step classify: model unreachable",
			expectTags:     "triage,error,job",
			expectPriority: "high",
		},
		{
			name:           "test event",
			event:          notifications.EventTest,
			payload:        nil,
			expectTitle:    "Triage - Test",
			expectBody:     "Notification system test",
			expectTags:     "triage,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotTitle, gotTags, gotPriority, gotBody string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotTitle = r.Header.Get("Title")
				gotTags = r.Header.Get("Tags")
				gotPriority = r.Header.Get("Priority")
				body, _ := io.ReadAll(r.Body)
				gotBody = string(body)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
			svc := notifications.NewService(cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish failed: %v", err)
			}

			if gotTitle != tc.expectTitle {
				t.Fatalf("title: got %q want %q", gotTitle, tc.expectTitle)
			}
			if gotBody != tc.expectBody {
				t.Fatalf("body: got %q want %q", gotBody, tc.expectBody)
			}
			if gotTags != tc.expectTags {
				t.Fatalf("tags: got %q want %q", gotTags, tc.expectTags)
			}
			if gotPriority != tc.expectPriority {
				t.Fatalf("priority: got %q want %q", gotPriority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	svc := notifications.NewService(cfg)
	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("error should carry the status code, got %v", err)
	}
}

func TestPublishRejectsUnknownEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	svc := notifications.NewService(cfg)
	if err := svc.Publish(context.Background(), notifications.Event("bogus"), nil); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/notifications"
	"triage/internal/queue"
	"triage/internal/services"
)

type captureService struct {
	mu       sync.Mutex
	events   []notifications.Event
	payloads []notifications.Payload
	err      error
}

func (c *captureService) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	c.payloads = append(c.payloads, payload)
	return c.err
}

func alertJob(t *testing.T, urgency feedback.Urgency, persistDone bool) *queue.Job {
	t.Helper()
	job := &queue.Job{
		ID:      "job-alert",
		Source:  feedback.SourceSupport,
		RawText: "the whole site is down",
		Status:  queue.StatusRunning,
	}
	payload, err := json.Marshal(feedback.Classification{
		Sentiment: feedback.SentimentNegative,
		Urgency:   urgency,
		Category:  "outage",
	})
	if err != nil {
		t.Fatalf("marshal classification: %v", err)
	}
	now := time.Now().UTC()
	job.Steps = []queue.Step{
		{JobID: job.ID, Name: queue.StepClassify, Status: queue.StepCompleted, Attempt: 1, ResultJSON: string(payload), CompletedAt: &now},
		{JobID: job.ID, Name: queue.StepPersist, Status: queue.StepNotStarted},
		{JobID: job.ID, Name: queue.StepAlert, Status: queue.StepNotStarted},
	}
	if persistDone {
		job.Steps[1].Status = queue.StepCompleted
		job.Steps[1].CompletedAt = &now
	}
	return job
}

func TestAlertHandlerSkipLogic(t *testing.T) {
	handler := notifications.NewHandler(&captureService{}, true, logging.NewNop())

	critical := alertJob(t, feedback.UrgencyCritical, true)
	if handler.Skip(critical) {
		t.Fatal("critical feedback with persist completed must alert")
	}

	high := alertJob(t, feedback.UrgencyHigh, true)
	if !handler.Skip(high) {
		t.Fatal("non-critical urgency must skip the alert step")
	}

	unpersisted := alertJob(t, feedback.UrgencyCritical, false)
	if !handler.Skip(unpersisted) {
		t.Fatal("alert must wait for a completed persist step")
	}

	disabled := notifications.NewHandler(&captureService{}, false, logging.NewNop())
	if !disabled.Skip(critical) {
		t.Fatal("disabled critical alerts must skip")
	}
}

func TestAlertHandlerPublishesCriticalFeedback(t *testing.T) {
	svc := &captureService{}
	handler := notifications.NewHandler(svc, true, logging.NewNop())

	job := alertJob(t, feedback.UrgencyCritical, true)
	if _, err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(svc.events) != 1 || svc.events[0] != notifications.EventCriticalFeedback {
		t.Fatalf("expected one critical feedback event, got %v", svc.events)
	}
	payload := svc.payloads[0]
	if payload["source"] != "support" || payload["category"] != "outage" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["excerpt"] == "" {
		t.Fatal("excerpt missing from payload")
	}
}

func TestAlertHandlerWrapsDeliveryFailures(t *testing.T) {
	svc := &captureService{err: errDelivery}
	handler := notifications.NewHandler(svc, true, logging.NewNop())

	job := alertJob(t, feedback.UrgencyCritical, true)
	_, err := handler.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected delivery failure")
	}
	if !services.IsAdvisory(err) {
		t.Fatalf("alert failures must stay advisory, got %v", err)
	}
}

var errDelivery = errors.New("ntfy unreachable")

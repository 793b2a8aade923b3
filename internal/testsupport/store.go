package testsupport

import (
	"context"
	"testing"

	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/queue"
	"triage/internal/store"
)

// MustOpenQueue opens a queue.Store for tests and registers cleanup.
func MustOpenQueue(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	qs, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		qs.Close()
	})
	return qs
}

// MustOpenStore opens a feedback store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	es, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		es.Close()
	})
	return es
}

// NewJob creates a pending job for tests using the provided queue store.
func NewJob(t testing.TB, qs *queue.Store, source feedback.Source, rawText string) *queue.Job {
	t.Helper()

	job := &queue.Job{
		ID:      NewJobID(t),
		Source:  source,
		RawText: rawText,
	}
	if err := qs.Create(context.Background(), job); err != nil {
		t.Fatalf("queue.Create: %v", err)
	}
	return job
}

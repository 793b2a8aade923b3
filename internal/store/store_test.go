package store_test

import (
	"context"
	"testing"
	"time"

	"triage/internal/feedback"
	"triage/internal/testsupport"
)

func testEntry(id string, createdAt time.Time) feedback.Entry {
	return feedback.Entry{
		ID:        id,
		Source:    feedback.SourceDiscord,
		RawText:   "payments page times out",
		Sentiment: feedback.SentimentNegative,
		Urgency:   feedback.UrgencyHigh,
		Category:  "billing",
		CreatedAt: createdAt,
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	es := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	entry := testEntry("job-1", first)
	if err := es.Upsert(ctx, entry); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}

	// A retried persist step writes the same row again with a later timestamp.
	retried := entry
	retried.Category = "payments"
	retried.CreatedAt = first.Add(time.Hour)
	if err := es.Upsert(ctx, retried); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	entries, err := es.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("upsert must not duplicate rows, got %d", len(entries))
	}
	got := entries[0]
	if got.Category != "payments" {
		t.Fatalf("classification fields should update on conflict, got %q", got.Category)
	}
	if !got.CreatedAt.Equal(first) {
		t.Fatalf("created_at must keep the first-persist timestamp, got %s", got.CreatedAt)
	}
}

func TestSelectAllOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	es := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"job-c", "job-a", "job-b"} {
		entry := testEntry(id, base.Add(time.Duration(2-i)*time.Minute))
		if err := es.Upsert(ctx, entry); err != nil {
			t.Fatalf("Upsert %s failed: %v", id, err)
		}
	}

	entries, err := es.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"job-b", "job-a", "job-c"}
	for i, id := range want {
		if entries[i].ID != id {
			t.Fatalf("entries out of order at %d: got %s want %s", i, entries[i].ID, id)
		}
	}
}

func TestGetByIDReportsPresence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	es := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entry := testEntry("job-present", time.Now().UTC())
	if err := es.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, ok, err := es.GetByID(ctx, "job-present")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if got.Sentiment != feedback.SentimentNegative || got.Urgency != feedback.UrgencyHigh {
		t.Fatalf("classification not round-tripped: %+v", got)
	}

	_, ok, err = es.GetByID(ctx, "job-absent")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if ok {
		t.Fatal("expected absent entry to report ok=false")
	}
}

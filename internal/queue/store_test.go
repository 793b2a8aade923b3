package queue_test

import (
	"context"
	"testing"
	"time"

	"triage/internal/feedback"
	"triage/internal/queue"
	"triage/internal/testsupport"
)

func TestCreateInitializesJobAndSteps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	qs := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, qs, feedback.SourceGitHub, "checkout flow is broken")

	if job.Status != queue.StatusPending {
		t.Fatalf("new jobs must start pending, got %s", job.Status)
	}

	loaded, err := qs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("job not found after create")
	}
	if loaded.RawText != job.RawText || loaded.Source != job.Source {
		t.Fatalf("job fields not persisted: %+v", loaded)
	}
	if len(loaded.Steps) != len(queue.StepNames()) {
		t.Fatalf("expected %d steps, got %d", len(queue.StepNames()), len(loaded.Steps))
	}
	for i, name := range queue.StepNames() {
		step := loaded.Steps[i]
		if step.Name != name {
			t.Fatalf("steps out of order at %d: got %s want %s", i, step.Name, name)
		}
		if step.Status != queue.StepNotStarted {
			t.Fatalf("step %s should start not_started, got %s", name, step.Status)
		}
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	qs := testsupport.MustOpenQueue(t, cfg)

	job, err := qs.GetByID(context.Background(), "no-such-job")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for missing job, got %+v", job)
	}
}

func TestClaimNextIsExclusiveAndOrdered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	qs := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	first := testsupport.NewJob(t, qs, feedback.SourceDiscord, "first")
	second := testsupport.NewJob(t, qs, feedback.SourceSupport, "second")

	claimed, err := qs.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("expected oldest pending job %s, got %+v", first.ID, claimed)
	}
	if claimed.Status != queue.StatusRunning {
		t.Fatalf("claimed job must be running, got %s", claimed.Status)
	}

	other, err := qs.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("second ClaimNext failed: %v", err)
	}
	if other == nil || other.ID != second.ID {
		t.Fatalf("expected second job %s, got %+v", second.ID, other)
	}

	empty, err := qs.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("third ClaimNext failed: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected empty queue, got %+v", empty)
	}
}

func TestUpdateStepRoundTrips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	qs := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, qs, feedback.SourceTwitter, "step checkpoint test")

	now := time.Now().UTC()
	step := job.Step(queue.StepClassify)
	step.Status = queue.StepInProgress
	step.Attempt = 2
	step.LastError = "transient upstream error"
	step.StartedAt = &now
	if err := qs.UpdateStep(ctx, step); err != nil {
		t.Fatalf("UpdateStep failed: %v", err)
	}

	loaded, err := qs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	got := loaded.Step(queue.StepClassify)
	if got.Status != queue.StepInProgress || got.Attempt != 2 {
		t.Fatalf("step checkpoint not persisted: %+v", got)
	}
	if got.LastError != "transient upstream error" {
		t.Fatalf("last error not persisted: %q", got.LastError)
	}
	if got.StartedAt == nil {
		t.Fatal("started_at not persisted")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	qs := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	done := testsupport.NewJob(t, qs, feedback.SourceDiscord, "done")
	testsupport.NewJob(t, qs, feedback.SourceDiscord, "waiting")
	if err := qs.SetStatus(ctx, done.ID, queue.StatusCompleted, ""); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	completed, err := qs.List(ctx, queue.StatusCompleted)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != done.ID {
		t.Fatalf("expected only the completed job, got %d", len(completed))
	}

	all, err := qs.List(ctx)
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}
}

func TestResetRunningRequeuesInterruptedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	qs := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	running := testsupport.NewJob(t, qs, feedback.SourceSupport, "interrupted")
	completed := testsupport.NewJob(t, qs, feedback.SourceSupport, "already done")
	if err := qs.SetStatus(ctx, running.ID, queue.StatusRunning, ""); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := qs.SetStatus(ctx, completed.ID, queue.StatusCompleted, ""); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	requeued, err := qs.ResetRunning(ctx)
	if err != nil {
		t.Fatalf("ResetRunning failed: %v", err)
	}
	if requeued != 1 {
		t.Fatalf("expected 1 requeued job, got %d", requeued)
	}

	stats, err := qs.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusPending] != 1 || stats[queue.StatusCompleted] != 1 || stats[queue.StatusRunning] != 0 {
		t.Fatalf("unexpected stats after reset: %v", stats)
	}
}

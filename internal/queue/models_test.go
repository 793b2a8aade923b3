package queue_test

import (
	"testing"

	"triage/internal/queue"
)

func TestAllStatusesParseRoundTrip(t *testing.T) {
	statuses := queue.AllStatuses()
	if len(statuses) != 4 {
		t.Fatalf("expected four job statuses, got %d", len(statuses))
	}
	for _, status := range statuses {
		parsed, ok := queue.ParseStatus(string(status))
		if !ok || parsed != status {
			t.Fatalf("ParseStatus(%q) = %q, %v", status, parsed, ok)
		}
	}
	if _, ok := queue.ParseStatus("archived"); ok {
		t.Fatal("unknown status must not parse")
	}
}

func TestFirstIncompleteStepFollowsDeclaredOrder(t *testing.T) {
	job := &queue.Job{
		Steps: []queue.Step{
			{Name: queue.StepClassify, Status: queue.StepCompleted},
			{Name: queue.StepPersist, Status: queue.StepInProgress, Attempt: 2},
			{Name: queue.StepAlert, Status: queue.StepNotStarted},
		},
	}

	step := job.FirstIncompleteStep()
	if step == nil || step.Name != queue.StepPersist {
		t.Fatalf("expected persist as first incomplete step, got %+v", step)
	}

	for i := range job.Steps {
		job.Steps[i].Status = queue.StepCompleted
	}
	if step := job.FirstIncompleteStep(); step != nil {
		t.Fatalf("fully completed job must have no incomplete step, got %+v", step)
	}
}

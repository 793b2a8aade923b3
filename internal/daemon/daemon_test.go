package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"triage/internal/api"
	"triage/internal/daemon"
	"triage/internal/logging"
	"triage/internal/notifications"
	"triage/internal/queue"
	"triage/internal/stage"
	"triage/internal/store"
	"triage/internal/testsupport"
	"triage/internal/workflow"
)

type stubClassifier struct {
	result []byte
}

func (stubClassifier) Name() queue.StepName { return queue.StepClassify }

func (s stubClassifier) Execute(context.Context, *queue.Job) ([]byte, error) {
	return s.result, nil
}

func (stubClassifier) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("classify")
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	queueStore := testsupport.MustOpenQueue(t, cfg)
	entryStore := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	classification, err := json.Marshal(map[string]string{
		"sentiment": "negative",
		"urgency":   "critical",
		"category":  "billing",
	})
	if err != nil {
		t.Fatalf("marshal classification: %v", err)
	}

	engine := workflow.NewEngineWithNotifier(cfg, queueStore, logger, notifications.NewNop(),
		stubClassifier{result: classification},
		store.NewHandler(entryStore, logger),
		notifications.NewHandler(notifications.NewNop(), false, logger),
	)
	d, err := daemon.New(cfg, queueStore, entryStore, logger, engine)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonServesSubmissionsOverHTTP(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	queueStore := testsupport.MustOpenQueue(t, cfg)
	entryStore := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	classification, err := json.Marshal(map[string]string{
		"sentiment": "negative",
		"urgency":   "critical",
		"category":  "outage",
	})
	if err != nil {
		t.Fatalf("marshal classification: %v", err)
	}

	engine := workflow.NewEngineWithNotifier(cfg, queueStore, logger, notifications.NewNop(),
		stubClassifier{result: classification},
		store.NewHandler(entryStore, logger),
		notifications.NewHandler(notifications.NewNop(), false, logger),
	)
	d, err := daemon.New(cfg, queueStore, entryStore, logger, engine)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	base := "http://" + d.APIAddr()
	payload := []byte(`{"source":"support","text":"checkout is completely down"}`)
	resp, err := http.Post(base+"/feedback", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("submit request failed: %v", err)
	}
	var submitted api.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || submitted.Status != "queued" || submitted.ID == "" {
		t.Fatalf("unexpected submit response: status=%d body=%+v", resp.StatusCode, submitted)
	}

	job := waitForJob(t, base, submitted.ID, string(queue.StatusCompleted))
	if len(job.Steps) != 3 {
		t.Fatalf("expected three steps, got %d", len(job.Steps))
	}

	resp, err = http.Get(base + "/api/signals")
	if err != nil {
		t.Fatalf("signals request failed: %v", err)
	}
	defer resp.Body.Close()
	var signals api.SignalsResponse
	if err := json.NewDecoder(resp.Body).Decode(&signals); err != nil {
		t.Fatalf("decode signals response: %v", err)
	}
	if signals.Total != 1 || len(signals.Priority) != 1 {
		t.Fatalf("unexpected signals response: %+v", signals)
	}
	if signals.Priority[0].Category != "outage" {
		t.Fatalf("unexpected priority entry: %+v", signals.Priority[0])
	}
}

func TestDaemonRejectsInvalidSubmission(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	queueStore := testsupport.MustOpenQueue(t, cfg)
	entryStore := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	engine := workflow.NewEngineWithNotifier(cfg, queueStore, logger, notifications.NewNop(),
		stubClassifier{result: []byte(`{}`)},
		store.NewHandler(entryStore, logger),
		notifications.NewHandler(notifications.NewNop(), false, logger),
	)
	d, err := daemon.New(cfg, queueStore, entryStore, logger, engine)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	base := "http://" + d.APIAddr()
	resp, err := http.Post(base+"/feedback", "application/json", bytes.NewReader([]byte(`{"source":"pager","text":"hi"}`)))
	if err != nil {
		t.Fatalf("submit request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown source, got %d", resp.StatusCode)
	}
}

func waitForJob(t *testing.T, base, id, wantStatus string) api.JobView {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	var job api.JobView
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("%s/api/jobs/%s", base, id))
		if err != nil {
			t.Fatalf("job request failed: %v", err)
		}
		err = json.NewDecoder(resp.Body).Decode(&job)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode job response: %v", err)
		}
		if job.Status == wantStatus {
			return job
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q (last %q)", id, wantStatus, job.Status)
	return job
}

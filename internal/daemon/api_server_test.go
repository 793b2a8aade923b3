package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"triage/internal/api"
	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/queue"
)

type jobStoreStub struct {
	jobs []*queue.Job
}

func (s *jobStoreStub) List(_ context.Context, statuses ...queue.Status) ([]*queue.Job, error) {
	if len(statuses) == 0 {
		return s.jobs, nil
	}
	var out []*queue.Job
	for _, job := range s.jobs {
		for _, status := range statuses {
			if job.Status == status {
				out = append(out, job)
			}
		}
	}
	return out, nil
}

func (s *jobStoreStub) GetByID(_ context.Context, id string) (*queue.Job, error) {
	for _, job := range s.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, nil
}

func (s *jobStoreStub) Stats(context.Context) (map[queue.Status]int, error) {
	return map[queue.Status]int{queue.StatusPending: len(s.jobs)}, nil
}

type entryStoreStub struct {
	entries []feedback.Entry
}

func (s *entryStoreStub) SelectAll(context.Context) ([]feedback.Entry, error) {
	return s.entries, nil
}

func testServer(jobs *jobStoreStub, entries *entryStoreStub) *apiServer {
	return &apiServer{
		logger:    logging.NewNop(),
		jobSvc:    api.NewJobService(jobs),
		signalSvc: api.NewSignalService(entries),
	}
}

func TestAPIServerHandleJobs(t *testing.T) {
	jobs := &jobStoreStub{jobs: []*queue.Job{
		{ID: "job-1", Source: feedback.SourceDiscord, Status: queue.StatusPending, CreatedAt: time.Now().UTC()},
		{ID: "job-2", Source: feedback.SourceGitHub, Status: queue.StatusCompleted},
	}}
	srv := testServer(jobs, &entryStoreStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?status=completed", nil)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].ID != "job-2" {
		t.Fatalf("status filter not applied: %+v", resp.Jobs)
	}
}

func TestAPIServerHandleJobsRejectsUnknownStatus(t *testing.T) {
	srv := testServer(&jobStoreStub{}, &entryStoreStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?status=bogus", nil)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAPIServerHandleJobByID(t *testing.T) {
	jobs := &jobStoreStub{jobs: []*queue.Job{{ID: "job-9", Source: feedback.SourceSupport, Status: queue.StatusRunning}}}
	srv := testServer(jobs, &entryStoreStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-9", nil)
	w := httptest.NewRecorder()
	srv.handleJob(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs/unknown", nil)
	w = httptest.NewRecorder()
	srv.handleJob(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", w.Code)
	}
}

func TestAPIServerHandleSignals(t *testing.T) {
	entries := &entryStoreStub{entries: []feedback.Entry{
		{
			ID:        "job-1",
			Source:    feedback.SourceSupport,
			RawText:   "completely broken",
			Sentiment: feedback.SentimentNegative,
			Urgency:   feedback.UrgencyCritical,
			Category:  "outage",
			CreatedAt: time.Now().UTC(),
		},
	}}
	srv := testServer(&jobStoreStub{}, entries)

	req := httptest.NewRequest(http.MethodGet, "/api/signals", nil)
	w := httptest.NewRecorder()
	srv.handleSignals(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.SignalsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.UrgentCount != 1 || len(resp.Priority) != 1 {
		t.Fatalf("unexpected signals payload: %+v", resp)
	}
	if resp.Priority[0].Category != "outage" {
		t.Fatalf("unexpected priority entry: %+v", resp.Priority[0])
	}
}

func TestAPIServerDashboardRendersSignals(t *testing.T) {
	entries := &entryStoreStub{entries: []feedback.Entry{
		{
			ID:        "job-1",
			Source:    feedback.SourceDiscord,
			RawText:   "nothing works at all",
			Sentiment: feedback.SentimentNegative,
			Urgency:   feedback.UrgencyHigh,
			Category:  "login",
			CreatedAt: time.Now().UTC(),
		},
	}}
	srv := testServer(&jobStoreStub{}, entries)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.handleDashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	body := w.Body.String()
	for _, fragment := range []string{"login", "nothing works at all", "Priority Signals"} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("dashboard missing %q", fragment)
		}
	}
}

func TestAPIServerMethodChecks(t *testing.T) {
	srv := testServer(&jobStoreStub{}, &entryStoreStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/signals", nil)
	w := httptest.NewRecorder()
	srv.handleSignals(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

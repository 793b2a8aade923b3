package api

import (
	"context"

	"triage/internal/queue"
)

// JobReader abstracts queue persistence interactions needed for API queries.
type JobReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	GetByID(ctx context.Context, id string) (*queue.Job, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
}

// JobService exposes read-only job queries returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// List returns jobs matching the supplied statuses, or every job when none
// are given, ordered oldest first.
func (s *JobService) List(ctx context.Context, statuses ...queue.Status) ([]JobView, error) {
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Describe returns a single job by ID, or ok=false when it does not exist.
func (s *JobService) Describe(ctx context.Context, id string) (JobView, bool, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return JobView{}, false, err
	}
	if job == nil {
		return JobView{}, false, nil
	}
	return FromJob(job), true, nil
}

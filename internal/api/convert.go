package api

import (
	"sort"

	"triage/internal/feedback"
	"triage/internal/queue"
	"triage/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) JobView {
	if job == nil {
		return JobView{}
	}

	dto := JobView{
		ID:           job.ID,
		Source:       string(job.Source),
		Status:       string(job.Status),
		ErrorMessage: job.ErrorMessage,
		Steps:        make([]StepView, 0, len(job.Steps)),
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	for _, step := range job.Steps {
		view := StepView{
			Name:    string(step.Name),
			Status:  string(step.Status),
			Attempt: step.Attempt,
			Skipped: step.ResultJSON == `{"skipped":true}`,
			Error:   step.LastError,
		}
		if step.StartedAt != nil {
			view.StartedAt = step.StartedAt.UTC().Format(dateTimeFormat)
		}
		if step.CompletedAt != nil {
			view.CompletedAt = step.CompletedAt.UTC().Format(dateTimeFormat)
		}
		dto.Steps = append(dto.Steps, view)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []JobView {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromEntry converts a stored feedback record into its API representation.
func FromEntry(entry feedback.Entry) SignalEntry {
	dto := SignalEntry{
		ID:        entry.ID,
		Source:    string(entry.Source),
		Text:      entry.RawText,
		Sentiment: string(entry.Sentiment),
		Urgency:   string(entry.Urgency),
		Category:  entry.Category,
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromStatusSummary converts workflow status into the API structure.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}

	status := WorkflowStatus{
		Running:    summary.Running,
		QueueStats: stats,
		LastError:  summary.LastError,
		StepHealth: make([]StepHealth, 0, len(summary.StepHealth)),
	}
	if summary.LastJob != nil {
		view := FromJob(summary.LastJob)
		status.LastJob = &view
	}
	for name, health := range summary.StepHealth {
		status.StepHealth = append(status.StepHealth, StepHealth{
			Name:   name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	sort.Slice(status.StepHealth, func(i, j int) bool {
		return status.StepHealth[i].Name < status.StepHealth[j].Name
	})
	return status
}

package queue

import (
	"strings"
	"time"

	"triage/internal/feedback"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known job statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a job status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepName identifies one of the fixed pipeline steps.
type StepName string

const (
	StepClassify StepName = "classify"
	StepPersist  StepName = "persist"
	StepAlert    StepName = "alert"
)

// StepNames returns the declared step order. Every job executes its steps in
// exactly this order; only the alert step may be skipped.
func StepNames() []StepName {
	return []StepName{StepClassify, StepPersist, StepAlert}
}

// StepStatus represents the lifecycle of a single step within a job.
type StepStatus string

const (
	StepNotStarted StepStatus = "not_started"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// Step is the durable checkpoint record for one step of one job.
type Step struct {
	JobID       string
	Name        StepName
	Status      StepStatus
	Attempt     int
	ResultJSON  string
	LastError   string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Job tracks one feedback submission through the pipeline.
type Job struct {
	ID           string
	Source       feedback.Source
	RawText      string
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Steps are loaded in declared order alongside the job.
	Steps []Step
}

// Step returns the checkpoint record for the named step, or nil.
func (j *Job) Step(name StepName) *Step {
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			return &j.Steps[i]
		}
	}
	return nil
}

// FirstIncompleteStep returns the first step not yet completed, in declared
// order, or nil when every step is completed.
func (j *Job) FirstIncompleteStep() *Step {
	for i := range j.Steps {
		if j.Steps[i].Status != StepCompleted {
			return &j.Steps[i]
		}
	}
	return nil
}

// Entry builds the persisted feedback record for this job from the supplied
// classification.
func (j *Job) Entry(c feedback.Classification, createdAt time.Time) feedback.Entry {
	return feedback.Entry{
		ID:        j.ID,
		Source:    j.Source,
		RawText:   j.RawText,
		Sentiment: c.Sentiment,
		Urgency:   c.Urgency,
		Category:  c.Category,
		CreatedAt: createdAt,
	}
}

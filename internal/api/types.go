package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// StepView describes one step checkpoint of a job in a transport-friendly
// format.
type StepView struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Attempt     int    `json:"attempt"`
	Skipped     bool   `json:"skipped,omitempty"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"startedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// JobView describes a pipeline job in a transport-friendly format.
type JobView struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    string     `json:"createdAt,omitempty"`
	UpdatedAt    string     `json:"updatedAt,omitempty"`
	Steps        []StepView `json:"steps"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// SubmitRequest is the ingestion payload accepted by POST /feedback.
type SubmitRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// SignalEntry describes one classified feedback record.
type SignalEntry struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	Urgency   string `json:"urgency"`
	Category  string `json:"category"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// CategoryCount pairs a category label with its frequency.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// SignalsResponse carries the priority queue and aggregate counters rendered
// by the dashboard.
type SignalsResponse struct {
	Total         int             `json:"total"`
	UrgentCount   int             `json:"urgentCount"`
	TopCategories []CategoryCount `json:"topCategories"`
	Priority      []SignalEntry   `json:"priority"`
}

// StepHealth mirrors readiness reporting for pipeline steps.
type StepHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes engine execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	QueueStats map[string]int `json:"queueStats"`
	LastError  string         `json:"lastError,omitempty"`
	LastJob    *JobView       `json:"lastJob,omitempty"`
	StepHealth []StepHealth   `json:"stepHealth"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	StoreDBPath  string         `json:"storeDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// ErrorResponse is the uniform error payload for API failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

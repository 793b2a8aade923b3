package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/queue"
	"triage/internal/services"
	"triage/internal/stage"
)

const excerptLimit = 120

// Handler runs the alert step. The step only fires for critical feedback and
// its failures are advisory; the pipeline never fails a job over a missed
// notification.
type Handler struct {
	service Service
	enabled bool
	logger  *slog.Logger
}

// NewHandler builds the alert step handler. Set enabled false to suppress
// critical alerts while leaving the step wired.
func NewHandler(service Service, enabled bool, logger *slog.Logger) *Handler {
	if service == nil {
		service = NewNop()
	}
	return &Handler{
		service: service,
		enabled: enabled,
		logger:  logging.NewComponentLogger(logger, "alerts"),
	}
}

func (h *Handler) Name() queue.StepName {
	return queue.StepAlert
}

// Skip reports whether the alert step should be bypassed for this job. Alerts
// fire only when the persist step completed and the stored classification is
// critical.
func (h *Handler) Skip(job *queue.Job) bool {
	if !h.enabled {
		return true
	}
	if persist := job.Step(queue.StepPersist); persist == nil || persist.Status != queue.StepCompleted {
		return true
	}
	classification, ok := jobClassification(job)
	if !ok {
		return true
	}
	return classification.Urgency != feedback.UrgencyCritical
}

// Execute publishes the critical feedback alert.
func (h *Handler) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	classification, ok := jobClassification(job)
	if !ok {
		return nil, services.Wrap(services.ErrAlert, "alert", "load classification", "classification result missing", nil)
	}
	payload := Payload{
		"source":   string(job.Source),
		"category": classification.Category,
		"excerpt":  excerpt(job.RawText),
	}
	if err := h.service.Publish(ctx, EventCriticalFeedback, payload); err != nil {
		return nil, services.Wrap(services.ErrAlert, "alert", "publish", "", err)
	}
	h.logger.InfoContext(ctx, "critical feedback alert sent",
		logging.String(logging.FieldSource, string(job.Source)),
		logging.String("category", classification.Category))
	return nil, nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(string(queue.StepAlert))
}

func jobClassification(job *queue.Job) (feedback.Classification, bool) {
	step := job.Step(queue.StepClassify)
	if step == nil || strings.TrimSpace(step.ResultJSON) == "" {
		return feedback.Classification{}, false
	}
	var classification feedback.Classification
	if err := json.Unmarshal([]byte(step.ResultJSON), &classification); err != nil {
		return feedback.Classification{}, false
	}
	if err := classification.Validate(); err != nil {
		return feedback.Classification{}, false
	}
	return classification, true
}

func excerpt(text string) string {
	trimmed := strings.Join(strings.Fields(text), " ")
	runes := []rune(trimmed)
	if len(runes) <= excerptLimit {
		return trimmed
	}
	return string(runes[:excerptLimit]) + "..."
}

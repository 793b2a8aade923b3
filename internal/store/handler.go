package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/queue"
	"triage/internal/services"
	"triage/internal/stage"
)

// Handler runs the persist step: it materializes the classify step's result
// into the feedback store. The write is an upsert keyed by job ID so a retry
// after a partial failure never produces duplicate rows.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler builds the persist step handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logging.NewComponentLogger(logger, "store")}
}

func (h *Handler) Name() queue.StepName {
	return queue.StepPersist
}

// Execute writes the classified feedback entry. A missing or invalid
// classification result is a validation failure; the classify step must have
// completed before this step runs.
func (h *Handler) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	classify := job.Step(queue.StepClassify)
	if classify == nil || classify.Status != queue.StepCompleted || strings.TrimSpace(classify.ResultJSON) == "" {
		return nil, services.Wrap(services.ErrValidation, "persist", "load classification", "classification result missing", nil)
	}

	var classification feedback.Classification
	if err := json.Unmarshal([]byte(classify.ResultJSON), &classification); err != nil {
		return nil, services.Wrap(services.ErrValidation, "persist", "decode classification", "", err)
	}
	if err := classification.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "persist", "validate classification", "", err)
	}

	entry := job.Entry(classification, time.Now().UTC())
	if err := h.store.Upsert(ctx, entry); err != nil {
		return nil, services.Wrap(services.ErrStorage, "persist", "upsert entry", "", err)
	}

	h.logger.InfoContext(ctx, "feedback entry persisted",
		logging.String(logging.FieldSource, string(entry.Source)),
		logging.String("category", entry.Category))
	return nil, nil
}

// HealthCheck verifies the feedback database responds to a ping.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.store.Ping(ctx); err != nil {
		return stage.Unhealthy(string(queue.StepPersist), err.Error())
	}
	return stage.Healthy(string(queue.StepPersist))
}

package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"triage/internal/logging"
	"triage/internal/queue"
	"triage/internal/stage"
)

// Handler runs the classify step: one model call, result checkpointed as JSON.
type Handler struct {
	client Client
	logger *slog.Logger
}

// NewHandler builds the classify step handler.
func NewHandler(client Client, logger *slog.Logger) *Handler {
	return &Handler{client: client, logger: logging.NewComponentLogger(logger, "classifier")}
}

func (h *Handler) Name() queue.StepName {
	return queue.StepClassify
}

// Execute classifies the job's raw text and returns the classification as the
// step result payload.
func (h *Handler) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	classification, err := h.client.Classify(ctx, job.RawText)
	if err != nil {
		return nil, err
	}
	result, err := json.Marshal(classification)
	if err != nil {
		return nil, fmt.Errorf("encode classification: %w", err)
	}
	h.logger.InfoContext(ctx, "feedback classified",
		logging.String("sentiment", string(classification.Sentiment)),
		logging.String("urgency", string(classification.Urgency)),
		logging.String("category", classification.Category))
	return result, nil
}

// HealthCheck reports whether the classifier is configured well enough to
// attempt model calls. It never performs network I/O.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	llm, ok := h.client.(*LLMClient)
	if !ok {
		return stage.Healthy(string(queue.StepClassify))
	}
	if strings.TrimSpace(llm.cfg.APIKey) == "" {
		return stage.Unhealthy(string(queue.StepClassify), "llm.api_key not configured")
	}
	if strings.TrimSpace(llm.cfg.BaseURL) == "" {
		return stage.Unhealthy(string(queue.StepClassify), "llm.base_url not configured")
	}
	return stage.Healthy(string(queue.StepClassify))
}

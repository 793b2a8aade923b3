package workflow

import (
	"context"

	"triage/internal/logging"
	"triage/internal/queue"
	"triage/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	LastError  string
	LastJob    *queue.Job
	QueueStats map[queue.Status]int
	StepHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (e *Engine) Status(ctx context.Context) StatusSummary {
	e.mu.RLock()
	running := e.running
	lastErr := e.lastErr
	lastJob := e.lastJob
	e.mu.RUnlock()

	stats, err := e.store.Stats(ctx)
	if err != nil {
		e.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(e.handlers))
	for name, handler := range e.handlers {
		health[string(name)] = handler.HealthCheck(ctx)
	}

	summary := StatusSummary{Running: running, QueueStats: stats, StepHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		cp := *lastJob
		cp.Steps = append([]queue.Step(nil), lastJob.Steps...)
		summary.LastJob = &cp
	}
	return summary
}

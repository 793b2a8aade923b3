package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"triage/internal/logging"
	"triage/internal/notifications"
	"triage/internal/queue"
	"triage/internal/services"
	"triage/internal/stage"
)

const skippedResult = `{"skipped":true}`

func (e *Engine) runWorker(ctx context.Context, id int) {
	defer e.wg.Done()
	logger := e.logger.With(logging.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := e.store.ClaimNext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			e.setLastError(err)
			logger.Error("failed to claim next job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_claim_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			e.waitOrShutdown(ctx, time.Duration(e.cfg.Workflow.ErrorRetryInterval)*time.Second)
			continue
		}
		if job == nil {
			e.waitOrShutdown(ctx, e.pollInterval)
			continue
		}

		if err := e.processJob(ctx, logger, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (e *Engine) waitOrShutdown(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		delay = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func (e *Engine) processJob(ctx context.Context, workerLogger *slog.Logger, job *queue.Job) error {
	jobCtx := services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(jobCtx, workerLogger)
	jobStart := time.Now()
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String(logging.FieldSource, string(job.Source)),
	)
	if resume := job.FirstIncompleteStep(); resume != nil && resume.Attempt > 0 {
		logger.Info("job resumed",
			logging.String(logging.FieldEventType, "job_resume"),
			logging.String(logging.FieldStep, string(resume.Name)),
			logging.Int(logging.FieldAttempt, resume.Attempt),
		)
	}

	for _, name := range queue.StepNames() {
		step := job.Step(name)
		if step == nil {
			err := fmt.Errorf("job %s missing step record %s", job.ID, name)
			e.failJob(jobCtx, logger, job, string(name), err)
			return err
		}
		if step.Status == queue.StepCompleted {
			continue
		}

		handler, ok := e.handlers[name]
		if !ok {
			err := fmt.Errorf("no handler registered for step %s", name)
			e.failJob(jobCtx, logger, job, string(name), err)
			return err
		}

		if skipper, ok := handler.(stage.Skipper); ok && skipper.Skip(job) {
			if err := e.markStepSkipped(jobCtx, step); err != nil {
				e.failJob(jobCtx, logger, job, string(name), err)
				return err
			}
			logger.Info("step skipped",
				logging.String(logging.FieldStep, string(name)),
				logging.String(logging.FieldEventType, "step_skipped"),
			)
			continue
		}

		if err := e.runStep(jobCtx, logger, job, step, handler); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if services.IsAdvisory(err) {
				logger.Warn("advisory step failed, job continues",
					logging.String(logging.FieldStep, string(name)),
					logging.Error(err),
				)
				continue
			}
			e.failJob(jobCtx, logger, job, string(name), err)
			return err
		}
	}

	job.Status = queue.StatusCompleted
	job.ErrorMessage = ""
	if err := e.store.SetStatus(jobCtx, job.ID, queue.StatusCompleted, ""); err != nil {
		wrapped := fmt.Errorf("persist job completion: %w", err)
		e.setLastError(wrapped)
		logger.Error("failed to persist job completion", logging.Error(wrapped))
		return wrapped
	}
	e.setLastJob(job)
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Duration("job_duration", time.Since(jobStart)),
	)
	return nil
}

// runStep executes a single step with retries. Each attempt is checkpointed
// before the handler runs so a crash mid-attempt is visible after restart.
func (e *Engine) runStep(ctx context.Context, logger *slog.Logger, job *queue.Job, step *queue.Step, handler stage.Handler) error {
	stepCtx := services.WithStep(ctx, string(step.Name))
	stepLogger := logging.WithContext(stepCtx, logger)

	// A step found in_progress here was interrupted mid-attempt by a crash.
	// Its attempt counter was already charged before the handler ran, so the
	// interrupted attempt re-executes instead of consuming fresh budget.
	firstAttempt := step.Attempt + 1
	if step.Status == queue.StepInProgress && step.Attempt > 0 {
		firstAttempt = step.Attempt
	}
	if firstAttempt > e.maxAttempts {
		failed := time.Now().UTC()
		step.Status = queue.StepFailed
		if step.LastError == "" {
			step.LastError = fmt.Sprintf("attempt budget exhausted after %d attempts", step.Attempt)
		}
		step.CompletedAt = &failed
		if err := e.store.UpdateStep(stepCtx, step); err != nil {
			stepLogger.Error("failed to persist step failure", logging.Error(err))
		}
		err := fmt.Errorf("step %s: %s", step.Name, step.LastError)
		stepLogger.Error("step failed",
			logging.String(logging.FieldEventType, "step_failure"),
			logging.Int(logging.FieldAttempt, step.Attempt),
			logging.Error(err),
		)
		return err
	}

	var lastErr error
	for attempt := firstAttempt; attempt <= e.maxAttempts; attempt++ {
		now := time.Now().UTC()
		step.Status = queue.StepInProgress
		step.Attempt = attempt
		if step.StartedAt == nil {
			step.StartedAt = &now
		}
		if err := e.store.UpdateStep(stepCtx, step); err != nil {
			return fmt.Errorf("persist step attempt: %w", err)
		}

		stepLogger.Info("step started",
			logging.String(logging.FieldEventType, "step_start"),
			logging.Int(logging.FieldAttempt, attempt),
		)

		result, execErr := handler.Execute(stepCtx, job)
		if execErr == nil {
			completed := time.Now().UTC()
			step.Status = queue.StepCompleted
			step.ResultJSON = string(result)
			step.LastError = ""
			step.CompletedAt = &completed
			if err := e.store.UpdateStep(stepCtx, step); err != nil {
				return fmt.Errorf("persist step result: %w", err)
			}
			stepLogger.Info("step completed",
				logging.String(logging.FieldEventType, "step_complete"),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Duration("step_duration", time.Since(now)),
			)
			return nil
		}

		if errors.Is(execErr, context.Canceled) || errors.Is(execErr, context.DeadlineExceeded) {
			return execErr
		}

		lastErr = execErr
		step.LastError = failureMessage(execErr)
		fatal := services.IsFatal(execErr) || services.IsAdvisory(execErr)
		exhausted := attempt >= e.maxAttempts
		if fatal || exhausted {
			failed := time.Now().UTC()
			step.Status = queue.StepFailed
			step.CompletedAt = &failed
			if err := e.store.UpdateStep(stepCtx, step); err != nil {
				stepLogger.Error("failed to persist step failure", logging.Error(err))
			}
			stepLogger.Error("step failed",
				logging.String(logging.FieldEventType, "step_failure"),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Error(execErr),
			)
			return execErr
		}

		if err := e.store.UpdateStep(stepCtx, step); err != nil {
			stepLogger.Error("failed to persist retry state", logging.Error(err))
		}
		delay := e.backoffDelay(attempt)
		stepLogger.Warn("step attempt failed, retrying",
			logging.String(logging.FieldEventType, "step_retry"),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Duration("retry_delay", delay),
			logging.Error(execErr),
		)
		select {
		case <-stepCtx.Done():
			return stepCtx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// backoffDelay doubles per attempt from the configured base, capped.
func (e *Engine) backoffDelay(attempt int) time.Duration {
	delay := e.retryBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= e.retryCap {
			return e.retryCap
		}
	}
	if delay > e.retryCap {
		return e.retryCap
	}
	return delay
}

func (e *Engine) markStepSkipped(ctx context.Context, step *queue.Step) error {
	now := time.Now().UTC()
	step.Status = queue.StepCompleted
	step.ResultJSON = skippedResult
	step.LastError = ""
	step.CompletedAt = &now
	return e.store.UpdateStep(ctx, step)
}

func (e *Engine) failJob(ctx context.Context, logger *slog.Logger, job *queue.Job, stepName string, cause error) {
	message := failureMessage(cause)
	if message == "" {
		message = fmt.Sprintf("%s failed", stepName)
	}
	job.Status = queue.StatusFailed
	job.ErrorMessage = message
	e.setLastError(cause)

	if err := e.store.SetStatus(ctx, job.ID, queue.StatusFailed, message); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist job failure")
		} else {
			logger.Error("failed to persist job failure", logging.Error(err))
		}
	}
	e.setLastJob(job)

	logger.Error("job failed",
		logging.String(logging.FieldEventType, "job_failure"),
		logging.String(logging.FieldStep, stepName),
		logging.String("error_message", message),
		logging.Error(cause),
	)

	if e.cfg.Notifications.Errors && e.notifier != nil {
		payload := notifications.Payload{
			"jobID": job.ID,
			"step":  stepName,
			"error": message,
		}
		if err := e.notifier.Publish(ctx, notifications.EventJobFailed, payload); err != nil {
			logger.Warn("failed to send job failure notification", logging.Error(err))
		}
	}
}

func failureMessage(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}

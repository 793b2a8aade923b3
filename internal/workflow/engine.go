package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/notifications"
	"triage/internal/queue"
	"triage/internal/services"
	"triage/internal/stage"
)

// Engine coordinates queue processing using registered step handlers.
type Engine struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	notifier     notifications.Service
	handlers     map[queue.StepName]stage.Handler
	pollInterval time.Duration
	workerCount  int
	maxAttempts  int
	retryBase    time.Duration
	retryCap     time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
}

// NewEngine constructs a workflow engine with the default notifier.
func NewEngine(cfg *config.Config, store *queue.Store, logger *slog.Logger, handlers ...stage.Handler) *Engine {
	return NewEngineWithNotifier(cfg, store, logger, notifications.NewService(cfg), handlers...)
}

// NewEngineWithNotifier constructs a workflow engine with a custom notifier
// (used in tests).
func NewEngineWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, handlers ...stage.Handler) *Engine {
	registry := make(map[queue.StepName]stage.Handler, len(handlers))
	for _, handler := range handlers {
		if handler != nil {
			registry[handler.Name()] = handler
		}
	}

	workerCount := cfg.Workflow.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}
	maxAttempts := cfg.Workflow.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	retryBase := time.Duration(cfg.Workflow.RetryDelayMillis) * time.Millisecond
	if retryBase <= 0 {
		retryBase = 500 * time.Millisecond
	}
	retryCap := time.Duration(cfg.Workflow.RetryMaxDelaySeconds) * time.Second
	if retryCap < retryBase {
		retryCap = retryBase
	}

	return &Engine{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		notifier:     notifier,
		handlers:     registry,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		workerCount:  workerCount,
		maxAttempts:  maxAttempts,
		retryBase:    retryBase,
		retryCap:     retryCap,
	}
}

// Submit validates the raw submission, enqueues a job with all steps
// initialized, and returns it. The job becomes visible to workers
// immediately.
func (e *Engine) Submit(ctx context.Context, source, rawText string) (*queue.Job, error) {
	parsedSource, ok := feedback.ParseSource(source)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "", "submit", "unknown source "+strings.TrimSpace(source), nil)
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, services.Wrap(services.ErrValidation, "", "submit", "text required", nil)
	}

	job := &queue.Job{
		ID:      uuid.NewString(),
		Source:  parsedSource,
		RawText: rawText,
	}
	if err := e.store.Create(ctx, job); err != nil {
		return nil, services.Wrap(services.ErrStorage, "", "submit", "enqueue job", err)
	}

	e.logger.InfoContext(ctx, "job submitted",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldSource, string(job.Source)))
	return job, nil
}

// Recover requeues jobs left in the running state by a previous process.
// Completed steps keep their checkpoints, so resumed jobs continue from the
// first incomplete step.
func (e *Engine) Recover(ctx context.Context) error {
	requeued, err := e.store.ResetRunning(ctx)
	if err != nil {
		return err
	}
	if requeued > 0 {
		e.logger.InfoContext(ctx, "interrupted jobs requeued", logging.Int64("count", requeued))
	}
	return nil
}

// Start begins background processing.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(e.handlers) == 0 {
		e.mu.Unlock()
		return errors.New("workflow steps not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.wg.Add(e.workerCount)
	e.mu.Unlock()

	for i := 0; i < e.workerCount; i++ {
		go e.runWorker(runCtx, i)
	}
	return nil
}

// Stop terminates background processing and waits for completion.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	e.running = false
	e.cancel = nil
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
}

func (e *Engine) setLastError(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}

func (e *Engine) setLastJob(job *queue.Job) {
	e.mu.Lock()
	if job != nil {
		cp := *job
		cp.Steps = append([]queue.Step(nil), job.Steps...)
		e.lastJob = &cp
	} else {
		e.lastJob = nil
	}
	e.mu.Unlock()
}

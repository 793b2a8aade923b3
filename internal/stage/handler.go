// Package stage declares the contract between the workflow engine and the
// step bodies it orchestrates.
package stage

import (
	"context"

	"triage/internal/queue"
)

// Handler describes the contract the workflow engine needs from each step.
// Execute returns the opaque result payload recorded on the step checkpoint.
type Handler interface {
	Name() queue.StepName
	Execute(ctx context.Context, job *queue.Job) (result []byte, err error)
	HealthCheck(ctx context.Context) Health
}

// Skipper is implemented by conditional steps. When Skip reports true the
// engine marks the step completed trivially without consuming an attempt.
type Skipper interface {
	Skip(job *queue.Job) bool
}

// Package workflow advances queued feedback jobs through the fixed
// classify, persist, and alert steps.
//
// The Engine runs a pool of workers that claim pending jobs, execute each
// step in order with per-step checkpointing, and retry retryable failures
// with exponential backoff up to a configured attempt bound. Completed steps
// are never re-executed; a daemon restart resumes every interrupted job from
// its first incomplete step. The engine also aggregates queue stats and step
// health for the status API.
//
// Add new lifecycle steps by extending the queue step enums and registering a
// handler; this package is the authoritative home for that coordination
// logic.
package workflow

// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal queue and feedback models into
// transport-friendly DTOs that the CLI, the dashboard, and other consumers
// can render without coupling to internal types.
//
// # Key Types
//
// JobView: transport representation of a pipeline job with per-step
// checkpoints.
//
// SignalsResponse: priority queue plus aggregate counters for the dashboard.
//
// WorkflowStatus: engine running state, queue stats, step health, and last
// job.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums are exposed as lowercase strings. Timestamps use RFC3339.
package api

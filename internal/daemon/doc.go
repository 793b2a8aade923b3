// Package daemon coordinates the long-running triage process.
//
// It wires configuration, queue storage, the feedback store, and the workflow
// engine into a single lifecycle with flock-based locking to prevent multiple
// instances, and serves the ingestion endpoint, the dashboard, and the
// read-only status API over HTTP.
//
// Keep orchestration logic here: individual pipeline steps live in their
// respective packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon

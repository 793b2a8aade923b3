// Package store persists classified feedback entries in SQLite.
//
// Writes go through an idempotent upsert keyed by entry id so the workflow
// engine can safely retry the persist step; reads are full scans consumed by
// the query service.
package store

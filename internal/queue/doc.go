// Package queue persists workflow jobs and their step checkpoints in SQLite.
//
// The store is the engine's durability boundary: a job and its step records
// are written before any step body runs, so a process restart resumes each
// non-terminal job at its first incomplete step without losing attempt counts.
package queue

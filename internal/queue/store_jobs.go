package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"triage/internal/feedback"
)

const jobColumns = "id, source, raw_text, status, error_message, created_at, updated_at"

const stepColumns = "job_id, name, status, attempt, result_json, last_error, started_at, completed_at"

// Create persists a new job together with its step checkpoints in one
// transaction, so the engine never observes a job without its steps.
func (s *Store) Create(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if job.ID == "" {
		return errors.New("job id must not be empty")
	}
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	job.Status = StatusPending
	job.CreatedAt = now
	job.UpdatedAt = now
	if len(job.Steps) == 0 {
		for _, name := range StepNames() {
			job.Steps = append(job.Steps, Step{JobID: job.ID, Name: name, Status: StepNotStarted})
		}
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin insert tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			job.ID, string(job.Source), job.RawText, string(job.Status),
			nullableString(job.ErrorMessage), timestamp, timestamp,
		); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}

		for _, step := range job.Steps {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO job_steps (`+stepColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				job.ID, string(step.Name), string(step.Status), step.Attempt,
				nullableString(step.ResultJSON), nullableString(step.LastError),
				nullableTime(step.StartedAt), nullableTime(step.CompletedAt),
			); err != nil {
				return fmt.Errorf("insert step %s: %w", step.Name, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert: %w", err)
		}
		return nil
	})
}

// GetByID fetches a job and its steps by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if err := s.loadSteps(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ClaimNext atomically transitions the oldest pending job to running and
// returns it. Returns nil when no pending job exists. The pending-status guard
// on the update makes concurrent workers mutually exclusive.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	for {
		row := s.db.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE status = ? ORDER BY created_at LIMIT 1`, StatusPending)
		var id string
		if err := row.Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("select claim candidate: %w", err)
		}

		res, err := s.execWithRetry(ctx,
			`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			StatusRunning, time.Now().UTC().Format(time.RFC3339Nano), id, StatusPending)
		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			// Another worker claimed it first; try the next candidate.
			continue
		}
		return s.GetByID(ctx, id)
	}
}

// SetStatus updates a job's status and error message.
func (s *Store) SetStatus(ctx context.Context, id string, status Status, errorMessage string) error {
	_, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), nullableString(errorMessage), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("set job status: %w", err)
	}
	return nil
}

// UpdateStep persists a step checkpoint.
func (s *Store) UpdateStep(ctx context.Context, step *Step) error {
	if step == nil {
		return errors.New("step is nil")
	}
	_, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE job_steps
         SET status = ?, attempt = ?, result_json = ?, last_error = ?,
             started_at = ?, completed_at = ?
         WHERE job_id = ? AND name = ?`,
		string(step.Status), step.Attempt,
		nullableString(step.ResultJSON), nullableString(step.LastError),
		nullableTime(step.StartedAt), nullableTime(step.CompletedAt),
		step.JobID, string(step.Name))
	if err != nil {
		return fmt.Errorf("update step %s: %w", step.Name, err)
	}
	return nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), ordered by creation time, with steps loaded.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = string(status)
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if err := s.loadSteps(ctx, job); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

// ResetRunning flips running jobs back to pending so the run loop reclaims
// them after a crash. Step checkpoints are untouched; completed steps stay
// completed and are skipped on resume.
func (s *Store) ResetRunning(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE jobs SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending, time.Now().UTC().Format(time.RFC3339Nano), StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("reset running jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns job counts grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return nil, err
		}
		if status, ok := ParseStatus(statusStr); ok {
			stats[status] = count
		}
	}
	return stats, rows.Err()
}

func (s *Store) loadSteps(ctx context.Context, job *Job) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stepColumns+` FROM job_steps WHERE job_id = ?`, job.ID)
	if err != nil {
		return fmt.Errorf("load steps: %w", err)
	}
	defer rows.Close()

	byName := make(map[StepName]Step, len(StepNames()))
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return err
		}
		byName[step.Name] = step
	}
	if err := rows.Err(); err != nil {
		return err
	}

	job.Steps = job.Steps[:0]
	for _, name := range StepNames() {
		if step, ok := byName[name]; ok {
			job.Steps = append(job.Steps, step)
		}
	}
	return nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		source       string
		rawText      string
		statusStr    string
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(&id, &source, &rawText, &statusStr, &errorMessage, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		Source:       feedback.Source(source),
		RawText:      rawText,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func scanStep(scanner interface{ Scan(dest ...any) error }) (Step, error) {
	var (
		jobID        string
		name         string
		statusStr    string
		attempt      int
		resultJSON   sql.NullString
		lastError    sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(&jobID, &name, &statusStr, &attempt, &resultJSON, &lastError, &startedRaw, &completedRaw); err != nil {
		return Step{}, err
	}

	step := Step{
		JobID:      jobID,
		Name:       StepName(name),
		Status:     StepStatus(statusStr),
		Attempt:    attempt,
		ResultJSON: resultJSON.String,
		LastError:  lastError.String,
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			step.StartedAt = &started
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			step.CompletedAt = &completed
		}
	}
	return step, nil
}

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"triage/internal/config"
	"triage/internal/feedback"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages feedback entry persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the feedback database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "feedback.db"))
}

// OpenPath connects to a feedback database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not open")
	}
	return s.db.PingContext(ensureContext(ctx))
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the feedback database to recreate)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

const entryColumns = "id, source, raw_text, sentiment, urgency, category, created_at"

// Upsert writes a feedback entry keyed by id. Re-invoking with the same id
// replaces the row, so a retried persist step with equal content is a no-op
// from the caller's perspective. CreatedAt is preserved on conflict so the
// first persistence timestamp is immutable.
func (s *Store) Upsert(ctx context.Context, entry feedback.Entry) error {
	if strings.TrimSpace(entry.ID) == "" {
		return errors.New("entry id must not be empty")
	}
	if strings.TrimSpace(entry.RawText) == "" {
		return errors.New("entry raw text must not be empty")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ensureContext(ctx),
		`INSERT INTO feedback_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET
             source = excluded.source,
             raw_text = excluded.raw_text,
             sentiment = excluded.sentiment,
             urgency = excluded.urgency,
             category = excluded.category`,
		entry.ID,
		string(entry.Source),
		entry.RawText,
		nullableString(string(entry.Sentiment)),
		nullableString(string(entry.Urgency)),
		nullableString(entry.Category),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// SelectAll returns every persisted entry ordered by creation time. The query
// service relies on this order being stable for a fixed input set.
func (s *Store) SelectAll(ctx context.Context) ([]feedback.Entry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+entryColumns+` FROM feedback_entries ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()

	var entries []feedback.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetByID fetches a single entry, or returns a zero entry and false.
func (s *Store) GetByID(ctx context.Context, id string) (feedback.Entry, bool, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+entryColumns+` FROM feedback_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return feedback.Entry{}, false, nil
	}
	if err != nil {
		return feedback.Entry{}, false, fmt.Errorf("get entry: %w", err)
	}
	return entry, true, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (feedback.Entry, error) {
	var (
		id         string
		source     string
		rawText    string
		sentiment  sql.NullString
		urgency    sql.NullString
		category   sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&id, &source, &rawText, &sentiment, &urgency, &category, &createdRaw); err != nil {
		return feedback.Entry{}, err
	}

	entry := feedback.Entry{
		ID:        id,
		Source:    feedback.Source(source),
		RawText:   rawText,
		Sentiment: feedback.Sentiment(sentiment.String),
		Urgency:   feedback.Urgency(urgency.String),
		Category:  category.String,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/mohammad-safakhou/pestel/config"
)

// Run is one persisted analysis run.
type Run struct {
	ID        string          `json:"id"`
	Form      json.RawMessage `json:"form"`
	Reports   json.RawMessage `json:"reports"`
	Scores    json.RawMessage `json:"scores"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists run history to Postgres.
type Store struct {
	db *sql.DB
}

// New opens a Postgres-backed run store.
func New(cfg config.PostgresConfig) (*Store, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by integration tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun inserts or updates a run row.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, form, reports, scores, created_at)
VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
ON CONFLICT (id) DO UPDATE SET
  form = EXCLUDED.form,
  reports = EXCLUDED.reports,
  scores = EXCLUDED.scores;
`, run.ID, nullableJSON(run.Form), nullableJSON(run.Reports), nullableJSON(run.Scores), nullableTime(run.CreatedAt))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun fetches one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, form, reports, scores, created_at FROM runs WHERE id = $1`, id)

	var run Run
	if err := row.Scan(&run.ID, &run.Form, &run.Reports, &run.Scores, &run.CreatedAt); err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, form, reports, scores, created_at FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Form, &run.Reports, &run.Scores, &run.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

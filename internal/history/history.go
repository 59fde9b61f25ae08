// Package history records completed conversion requests in Postgres. The
// audit log is best-effort and optional: the pipeline never fails because a
// history write failed, and the repository is disabled entirely when no
// database is configured.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
	id UUID PRIMARY KEY,
	filename TEXT NOT NULL,
	artifact_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Conversion statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Record is one conversion request outcome.
type Record struct {
	ID         uuid.UUID
	Filename   string
	ArtifactID string
	Status     string
	Duration   time.Duration
	CreatedAt  time.Time
}

// Repository persists conversion records.
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and ensures the conversions table exists.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure conversions table: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Record inserts one conversion outcome.
func (r *Repository) Record(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversions (id, filename, artifact_id, status, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Filename, rec.ArtifactID, rec.Status, rec.Duration.Milliseconds(), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversion record: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Package history keeps an execution log of statements that passed through
// the gateway. Recording is best effort: a history failure is logged, never
// surfaced to the caller.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Record is one gateway execution.
type Record struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	Statement    string    `db:"statement"     json:"statement"`
	Status       string    `db:"status"        json:"status"`
	ErrorKind    string    `db:"error_kind"    json:"error_kind,omitempty"`
	RowsAffected int64     `db:"rows_affected" json:"rows_affected"`
	Duration     float64   `db:"duration"      json:"duration"`
	Cached       bool      `db:"cached"        json:"cached"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

// Repo persists records in PostgreSQL.
type Repo struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewRepo creates a history repository over an open database handle.
func NewRepo(db *sqlx.DB, log *slog.Logger) *Repo {
	return &Repo{db: db, log: log}
}

// Record appends one execution to the history table.
func (r *Repo) Record(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	const query = `
		INSERT INTO query_history (
			id, statement, status, error_kind, rows_affected, duration, cached, created_at
		) VALUES (
			:id, :statement, :status, :error_kind, :rows_affected, :duration, :cached, :created_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	const query = `
		SELECT id, statement, status, error_kind, rows_affected, duration, cached, created_at
		FROM query_history
		ORDER BY created_at DESC
		LIMIT $1
	`
	records := make([]Record, 0, limit)
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return records, nil
}

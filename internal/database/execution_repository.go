package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Execution is one crawl job's history row.
type Execution struct {
	ID           string         `db:"id"`
	Region       string         `db:"region"`
	Status       string         `db:"status"`
	Source       sql.NullString `db:"source"`
	TotalRecords sql.NullInt64  `db:"total_records"`
	OutputPath   sql.NullString `db:"output_path"`
	ErrorMessage sql.NullString `db:"error_message"`
	StartedAt    time.Time      `db:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
	DurationMs   sql.NullInt64  `db:"duration_ms"`
}

// ExecutionRepository persists crawl executions.
type ExecutionRepository struct {
	db *sqlx.DB
}

// NewExecutionRepository creates an execution repository.
func NewExecutionRepository(db *sqlx.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// Create inserts a new execution row, normally in the running state.
func (r *ExecutionRepository) Create(ctx context.Context, execution *Execution) error {
	query := `
		INSERT INTO crawl_executions (
			id, region, status, started_at
		)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.Region,
		execution.Status,
		execution.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create execution: %w", err)
	}

	return nil
}

// Complete finalizes an execution row with its outcome.
func (r *ExecutionRepository) Complete(ctx context.Context, execution *Execution) error {
	query := `
		UPDATE crawl_executions
		SET status = $1,
		    source = $2,
		    total_records = $3,
		    output_path = $4,
		    error_message = $5,
		    completed_at = $6,
		    duration_ms = $7
		WHERE id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.Status,
		execution.Source,
		execution.TotalRecords,
		execution.OutputPath,
		execution.ErrorMessage,
		execution.CompletedAt,
		execution.DurationMs,
		execution.ID,
	)
	if err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("execution not found: %s", execution.ID)
	}

	return nil
}

// ListRecent returns the most recent executions, newest first.
func (r *ExecutionRepository) ListRecent(ctx context.Context, limit int) ([]Execution, error) {
	query := `
		SELECT id, region, status, source, total_records,
		       output_path, error_message,
		       started_at, completed_at, duration_ms
		FROM crawl_executions
		ORDER BY started_at DESC
		LIMIT $1
	`

	var executions []Execution
	if err := r.db.SelectContext(ctx, &executions, query, limit); err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}

	return executions, nil
}

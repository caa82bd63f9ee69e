package api

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/goscreener/internal/database"
	"github.com/jonesrussell/goscreener/internal/job"
	"github.com/jonesrussell/goscreener/internal/logger"
)

// ExecutionStore persists execution history rows.
type ExecutionStore interface {
	Create(ctx context.Context, execution *database.Execution) error
	Complete(ctx context.Context, execution *database.Execution) error
}

// RecordingRunner decorates a Runner with execution history. Recording
// is best-effort: a history failure never fails the crawl.
type RecordingRunner struct {
	next  Runner
	store ExecutionStore
	log   logger.Interface
}

// NewRecordingRunner wraps next with history persistence.
func NewRecordingRunner(next Runner, store ExecutionStore, log logger.Interface) *RecordingRunner {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &RecordingRunner{next: next, store: store, log: log.WithComponent("history")}
}

// Execute runs the crawl and records one history row around it.
func (r *RecordingRunner) Execute(ctx context.Context, params job.ExecutionParams) (*job.ExecutionResult, error) {
	execution := &database.Execution{
		ID:        uuid.NewString(),
		Region:    params.Region,
		Status:    string(StatusRunning),
		StartedAt: time.Now().UTC(),
	}
	if err := r.store.Create(ctx, execution); err != nil {
		r.log.Warn("history create failed", "error", err)
	}

	result, err := r.next.Execute(ctx, params)

	now := time.Now().UTC()
	execution.CompletedAt = sql.NullTime{Time: now, Valid: true}
	execution.DurationMs = sql.NullInt64{Int64: now.Sub(execution.StartedAt).Milliseconds(), Valid: true}
	if err != nil {
		execution.Status = string(StatusFailed)
		execution.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	} else {
		execution.Status = string(StatusCompleted)
		execution.Source = sql.NullString{String: result.Source, Valid: true}
		execution.TotalRecords = sql.NullInt64{Int64: int64(result.TotalRecords), Valid: true}
		execution.OutputPath = sql.NullString{String: result.OutputPath, Valid: true}
	}
	if storeErr := r.store.Complete(ctx, execution); storeErr != nil {
		r.log.Warn("history complete failed", "error", storeErr)
	}

	return result, err
}

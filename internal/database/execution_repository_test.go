package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

func TestExecutionRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db)

	started := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO crawl_executions").
		WithArgs("exec-1", "Argentina", "running", started).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &Execution{
		ID:        "exec-1",
		Region:    "Argentina",
		Status:    "running",
		StartedAt: started,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutionRepository_Complete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db)

	completed := time.Date(2026, 8, 26, 12, 1, 30, 0, time.UTC)
	mock.ExpectExec("UPDATE crawl_executions").
		WithArgs("completed",
			sql.NullString{String: "live", Valid: true},
			sql.NullInt64{Int64: 42, Valid: true},
			sql.NullString{String: "output/equities.csv", Valid: true},
			sql.NullString{},
			sql.NullTime{Time: completed, Valid: true},
			sql.NullInt64{Int64: 90000, Valid: true},
			"exec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Complete(context.Background(), &Execution{
		ID:           "exec-1",
		Status:       "completed",
		Source:       sql.NullString{String: "live", Valid: true},
		TotalRecords: sql.NullInt64{Int64: 42, Valid: true},
		OutputPath:   sql.NullString{String: "output/equities.csv", Valid: true},
		CompletedAt:  sql.NullTime{Time: completed, Valid: true},
		DurationMs:   sql.NullInt64{Int64: 90000, Valid: true},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutionRepository_CompleteUnknownID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db)

	mock.ExpectExec("UPDATE crawl_executions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Complete(context.Background(), &Execution{ID: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution not found")
}

func TestExecutionRepository_ListRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db)

	started := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "region", "status", "source", "total_records",
		"output_path", "error_message", "started_at", "completed_at", "duration_ms",
	}).AddRow("exec-2", "Argentina", "completed", "cache", 42,
		"output/equities.csv", nil, started, started.Add(time.Second), 1000)

	mock.ExpectQuery("SELECT (.+) FROM crawl_executions").
		WithArgs(10).
		WillReturnRows(rows)

	executions, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, "exec-2", executions[0].ID)
	assert.Equal(t, "cache", executions[0].Source.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

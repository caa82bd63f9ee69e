package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goscreener/internal/database"
	"github.com/jonesrussell/goscreener/internal/job"
)

type fakeStore struct {
	created   []database.Execution
	completed []database.Execution
	failAll   bool
}

func (s *fakeStore) Create(ctx context.Context, e *database.Execution) error {
	if s.failAll {
		return errors.New("db down")
	}
	s.created = append(s.created, *e)
	return nil
}

func (s *fakeStore) Complete(ctx context.Context, e *database.Execution) error {
	if s.failAll {
		return errors.New("db down")
	}
	s.completed = append(s.completed, *e)
	return nil
}

func TestRecordingRunner_RecordsSuccess(t *testing.T) {
	store := &fakeStore{}
	inner := &stubRunner{result: &job.ExecutionResult{
		OutputPath:   "out.csv",
		TotalRecords: 5,
		Source:       job.SourceLive,
	}}
	runner := NewRecordingRunner(inner, store, nil)

	result, err := runner.Execute(context.Background(), job.NewParams("Argentina"))
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalRecords)

	require.Len(t, store.created, 1)
	assert.Equal(t, "running", store.created[0].Status)
	assert.Equal(t, "Argentina", store.created[0].Region)

	require.Len(t, store.completed, 1)
	done := store.completed[0]
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, "live", done.Source.String)
	assert.Equal(t, int64(5), done.TotalRecords.Int64)
	assert.True(t, done.CompletedAt.Valid)
}

func TestRecordingRunner_RecordsFailure(t *testing.T) {
	store := &fakeStore{}
	inner := &stubRunner{err: errors.New("load timed out")}
	runner := NewRecordingRunner(inner, store, nil)

	_, err := runner.Execute(context.Background(), job.NewParams("Argentina"))
	require.Error(t, err)

	require.Len(t, store.completed, 1)
	assert.Equal(t, "failed", store.completed[0].Status)
	assert.Equal(t, "load timed out", store.completed[0].ErrorMessage.String)
	assert.False(t, store.completed[0].Source.Valid)
}

func TestRecordingRunner_StoreFailureDoesNotFailJob(t *testing.T) {
	store := &fakeStore{failAll: true}
	inner := &stubRunner{result: &job.ExecutionResult{Source: job.SourceCache}}
	runner := NewRecordingRunner(inner, store, nil)

	result, err := runner.Execute(context.Background(), job.NewParams("Argentina"))
	require.NoError(t, err)
	assert.Equal(t, job.SourceCache, result.Source)
}

package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goscreener/internal/job"
)

func TestRegistry_AddAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	id := r.Add(job.NewParams("Argentina"))

	j, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusQueued, j.Status)
	assert.Equal(t, "Argentina", j.Params.Region)
	assert.False(t, j.SubmittedAt.IsZero())

	_, ok = r.Get("absent")
	assert.False(t, ok)
}

func TestRegistry_ClaimTransitionsToRunning(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	params := job.NewParams("Argentina")
	params.Headless = false
	id := r.Add(params)

	j, ok := r.claim(id)
	require.True(t, ok)
	// The snapshot carries the params and the running transition
	// together.
	assert.Equal(t, StatusRunning, j.Status)
	assert.Equal(t, params, j.Params)
	require.NotNil(t, j.StartedAt)

	stored, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusRunning, stored.Status)
}

func TestRegistry_ClaimUnknownID(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, ok := r.claim("absent")
	assert.False(t, ok)
}

// Package api exposes crawl jobs over HTTP: a synchronous endpoint, an
// async submit/poll pair, and a health probe.
package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/goscreener/internal/job"
)

// JobStatus is the lifecycle state of an async crawl job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one async crawl from submission to completion.
type Job struct {
	ID          string
	Params      job.ExecutionParams
	Status      JobStatus
	SubmittedAt time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	Result      *job.ExecutionResult
	Error       string
}

// Registry is the in-memory job table. One lock guards the whole map;
// job volume here is human-scale, not high-throughput.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Add registers a new queued job and returns its id.
func (r *Registry) Add(params job.ExecutionParams) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.jobs[id] = &Job{
		ID:          id,
		Params:      params,
		Status:      StatusQueued,
		SubmittedAt: time.Now().UTC(),
	}
	return id
}

// Get returns a snapshot of the job, or false when the id is unknown.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// claim transitions a job to running and returns its snapshot in one
// critical section, so a worker's view of the params and the status
// change cannot interleave with other registry writers.
func (r *Registry) claim(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	now := time.Now().UTC()
	j.Status = StatusRunning
	j.StartedAt = &now
	return *j, true
}

func (r *Registry) markCompleted(id string, result *job.ExecutionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[id]; ok {
		now := time.Now().UTC()
		j.Status = StatusCompleted
		j.FinishedAt = &now
		j.Result = result
	}
}

func (r *Registry) markFailed(id string, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[id]; ok {
		now := time.Now().UTC()
		j.Status = StatusFailed
		j.FinishedAt = &now
		j.Error = message
	}
}

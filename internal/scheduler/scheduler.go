// Package scheduler runs configured region crawls on cron schedules.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/goscreener/internal/job"
	"github.com/jonesrussell/goscreener/internal/logger"
)

// Runner executes one crawl job.
type Runner interface {
	Execute(ctx context.Context, params job.ExecutionParams) (*job.ExecutionResult, error)
}

// Entry binds a cron expression to the crawl it triggers.
type Entry struct {
	Cron   string
	Params job.ExecutionParams
}

// Manager owns the cron runtime. Each entry runs at most one crawl at a
// time; a tick that fires while the previous run is still going is
// skipped.
type Manager struct {
	runner Runner
	cron   *cron.Cron
	log    logger.Interface

	mu      sync.Mutex
	running map[string]bool
}

// New creates a scheduler around the runner.
func New(runner Runner, log logger.Interface) *Manager {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Manager{
		runner:  runner,
		cron:    cron.New(),
		log:     log.WithComponent("scheduler"),
		running: make(map[string]bool),
	}
}

// Add registers an entry. Invalid cron expressions are rejected.
func (m *Manager) Add(ctx context.Context, entry Entry) error {
	region := entry.Params.Region
	_, err := m.cron.AddFunc(entry.Cron, func() {
		m.runOnce(ctx, region, entry.Params)
	})
	if err != nil {
		return err
	}

	m.log.Info("schedule registered", "cron", entry.Cron, "region", region)
	return nil
}

// Start begins firing schedules. It returns immediately.
func (m *Manager) Start() {
	m.cron.Start()
}

// Stop halts scheduling and waits for in-flight runs to finish.
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
}

// RunNow fires an entry immediately, subject to the same
// one-at-a-time-per-region rule as scheduled ticks.
func (m *Manager) RunNow(ctx context.Context, entry Entry) {
	m.runOnce(ctx, entry.Params.Region, entry.Params)
}

func (m *Manager) runOnce(ctx context.Context, region string, params job.ExecutionParams) {
	if !m.tryAcquire(region) {
		m.log.Warn("previous scheduled crawl still running, skipping tick", "region", region)
		return
	}
	defer m.release(region)

	m.log.Info("scheduled crawl starting", "region", region)
	result, err := m.runner.Execute(ctx, params)
	if err != nil {
		m.log.Error("scheduled crawl failed", "region", region, "error", err)
		return
	}

	m.log.Info("scheduled crawl finished",
		"region", region,
		"source", result.Source,
		"records", result.TotalRecords)
}

func (m *Manager) tryAcquire(region string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running[region] {
		return false
	}
	m.running[region] = true
	return true
}

func (m *Manager) release(region string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.running, region)
}

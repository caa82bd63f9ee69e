package api

import (
	"context"
	"sync"

	"github.com/jonesrussell/goscreener/internal/job"
	"github.com/jonesrussell/goscreener/internal/logger"
)

// DefaultWorkers bounds concurrent crawls: each job drives its own
// browser, and two of those saturate a small host already.
const DefaultWorkers = 2

const queueCapacity = 64

// Runner executes one crawl job. *job.Executor is the production
// implementation.
type Runner interface {
	Execute(ctx context.Context, params job.ExecutionParams) (*job.ExecutionResult, error)
}

// Pool runs queued jobs on a fixed set of workers.
type Pool struct {
	runner   Runner
	registry *Registry
	queue    chan string
	log      logger.Interface
	wg       sync.WaitGroup
}

// NewPool creates a worker pool over the registry.
func NewPool(runner Runner, registry *Registry, log logger.Interface) *Pool {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Pool{
		runner:   runner,
		registry: registry,
		queue:    make(chan string, queueCapacity),
		log:      log.WithComponent("pool"),
	}
}

// Start launches the workers. They exit when ctx is canceled or the
// queue is closed.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < DefaultWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Submit enqueues a registered job id for execution.
func (p *Pool) Submit(id string) {
	p.queue <- id
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-p.queue:
			if !ok {
				return
			}
			p.run(ctx, id)
		}
	}
}

func (p *Pool) run(ctx context.Context, id string) {
	j, ok := p.registry.claim(id)
	if !ok {
		p.log.Warn("queued job missing from registry", "job_id", id)
		return
	}

	p.log.Info("job started", "job_id", id, "region", j.Params.Region)

	result, err := p.runner.Execute(ctx, j.Params)
	if err != nil {
		p.registry.markFailed(id, err.Error())
		p.log.Error("job failed", "job_id", id, "error", err)
		return
	}

	p.registry.markCompleted(id, result)
	p.log.Info("job completed",
		"job_id", id,
		"source", result.Source,
		"records", result.TotalRecords)
}

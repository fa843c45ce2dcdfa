// Package worker runs background jobs on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dullmace/faux-must-see/internal/logging"
	"github.com/dullmace/faux-must-see/internal/metrics"
)

var (
	ErrQueueFull   = errors.New("worker: queue full")
	ErrPoolStopped = errors.New("worker: pool stopped")
)

// Job is a unit of background work. Run receives the pool context, which is
// canceled when the pool stops.
type Job struct {
	ID  string
	Run func(ctx context.Context)
}

// Pool manages background workers for async jobs.
type Pool struct {
	jobs   chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a pool with the given queue size. Call Start to launch
// workers.
func NewPool(queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:   make(chan Job, queueSize),
		ctx:    ctx,
		cancel: cancel,
		logger: logging.Component("worker"),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop cancels running jobs, drains the queue and waits for workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.cancel()
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		metrics.JobsDropped.Inc()
		p.logger.Warn().Str("job_id", job.ID).Msg("queue full, rejecting job")
		return ErrQueueFull
	}
}

func (p *Pool) processJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Str("job_id", job.ID).Interface("panic", r).Msg("job panicked")
		}
	}()
	job.Run(p.ctx)
}

package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool executes jobs on a fixed number of worker goroutines and collects
// their results. Result order is unspecified.
type Pool struct {
	workers    int
	jobQueue   chan Job
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	mu      sync.Mutex
	results []Result
}

// NewPool creates a new worker pool with the specified number of workers.
// The pool stops accepting and executing work once parent is cancelled.
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run()
		}()
	}
}

// run drains the job queue until it closes or the pool context is cancelled
func (p *Pool) run() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.collect(job.Execute(p.ctx))
		}
	}
}

func (p *Pool) collect(result Result) {
	p.mu.Lock()
	p.results = append(p.results, result)
	p.mu.Unlock()
}

// Submit queues a job for execution. It is a no-op once the pool context is
// cancelled, so callers never block against a stopped pool.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobQueue <- job:
	}
}

// Wait stops accepting new jobs, waits for in-flight work, and returns the
// collected results
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results
}

// Shutdown cancels in-flight work and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
}

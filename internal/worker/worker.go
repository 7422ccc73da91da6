package worker

import (
	"context"
	"log/slog"
	"sync"
)

type ProcessFunc[T any] func(ctx context.Context, job T) error

// Pool runs a fixed number of workers over a buffered job queue.
type Pool[T any] struct {
	numWorkers int
	jobs       chan T
	processor  ProcessFunc[T]
	wg         sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	closing chan struct{}
	once    sync.Once
}

func NewPool[T any](numWorkers int, bufferSize int, processor ProcessFunc[T]) *Pool[T] {
	return &Pool[T]{
		numWorkers: numWorkers,
		jobs:       make(chan T, bufferSize),
		processor:  processor,
		closing:    make(chan struct{}),
	}
}

func (p *Pool[T]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool[T]) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(ctx, job); err != nil {
				slog.Warn("job failed", "worker", id, "error", err)
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full. It reports false once
// Stop has been called.
func (p *Pool[T]) Submit(job T) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	case <-p.closing:
		return false
	}
}

// Stop rejects new jobs, lets workers drain the queue and waits for them.
func (p *Pool[T]) Stop() {
	p.once.Do(func() {
		close(p.closing)

		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

package httpjson

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrDispatcherClosed is returned by Submit after Stop.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher runs submitted calls on a fixed set of workers fed by a bounded queue.
type Dispatcher struct {
	logger  *zap.Logger
	jobs    chan func()
	workers int
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

func NewDispatcher(workers int, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		logger:  logger,
		workers: workers,
		jobs:    make(chan func(), workers*2),
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			for job := range d.jobs {
				d.run(id, job)
			}
		}(i + 1)
	}
}

func (d *Dispatcher) run(id int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatcher: job panicked", zap.Int("worker", id), zap.Any("panic", r))
		}
	}()
	job()
}

// Stop rejects new jobs, lets queued ones finish and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

// Submit queues job, blocking while the queue is full.
func (d *Dispatcher) Submit(ctx context.Context, job func()) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

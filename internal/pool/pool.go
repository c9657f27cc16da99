// Package pool provides a bounded, reusable worker pool with typed futures.
package pool

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by futures submitted after Close.
var ErrClosed = goerrors.New("worker pool is closed")

// Config contains configuration for a pool.
type Config struct {
	Workers   int
	QueueSize int
}

// DefaultConfig returns one worker per CPU and a queue of 64 tasks.
func DefaultConfig() Config {
	return Config{Workers: runtime.NumCPU(), QueueSize: 64}
}

// Pool runs submitted tasks on a fixed set of workers.
type Pool struct {
	logger  *slog.Logger
	queue   chan func()
	group   errgroup.Group
	workers int

	// mu guards closed and sends on queue
	mu     sync.RWMutex
	closed bool

	processed atomic.Int64
	failed    atomic.Int64
}

// New starts a pool. Non-positive values fall back to DefaultConfig.
func New(cfg Config, logger *slog.Logger) *Pool {
	defaults := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}

	p := &Pool{
		logger:  logger,
		queue:   make(chan func(), cfg.QueueSize),
		workers: cfg.Workers,
	}
	for i := 0; i < cfg.Workers; i++ {
		p.group.Go(func() error {
			for task := range p.queue {
				task()
			}
			return nil
		})
	}

	logger.Debug("Started worker pool", "workers", cfg.Workers, "queueSize", cfg.QueueSize)
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Stats returns the number of tasks that completed and how many of those
// failed.
func (p *Pool) Stats() (processed, failed int64) {
	return p.processed.Load(), p.failed.Load()
}

// Close stops accepting tasks, drains the queue and waits for the workers.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	err := p.group.Wait()
	processed, failed := p.Stats()
	p.logger.Debug("Worker pool stopped", "processed", processed, "failed", failed)
	return err
}

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) resolve(value T, err error) {
	f.value, f.err = value, err
	close(f.done)
}

// Submit queues fn on p. It blocks while the queue is full. A panic in fn
// becomes the future's error; a task whose ctx is done before it starts is
// not run.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	task := func() {
		var (
			value T
			err   error
		)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panic: %v", r)
				p.logger.Error("Worker task panicked", "panic", r)
			}
			p.processed.Add(1)
			if err != nil {
				p.failed.Add(1)
			}
			f.resolve(value, err)
		}()

		if err = ctx.Err(); err != nil {
			return
		}
		value, err = fn(ctx)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		var zero T
		f.resolve(zero, ErrClosed)
		return f
	}

	select {
	case p.queue <- task:
	case <-ctx.Done():
		var zero T
		f.resolve(zero, ctx.Err())
	}
	return f
}

// Package tasks runs best-effort background work, such as notifications and
// image cleanup, after a request's primary work has committed.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

var ErrPoolClosed = errors.New("task pool closed")
var ErrQueueFull = errors.New("task queue full")

// Task is a named unit of background work. Name is used only for logging.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher accepts tasks for asynchronous execution.
type Dispatcher interface {
	Dispatch(t Task) error
}

// Pool runs tasks on a bounded pond worker pool with a bounded queue.
// Task failures and panics are logged and never reach the dispatcher.
type Pool struct {
	pool    pond.Pool
	logger  logging.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewPool runs at most workers tasks at once and holds up to queueSize
// more. Each task gets its own timeout derived from a pool-wide context
// that is cancelled when Shutdown gives up waiting.
func NewPool(workers, queueSize int, timeout time.Duration, logger logging.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	opts := []pond.Option{pond.WithContext(ctx)}
	if queueSize > 0 {
		opts = append(opts, pond.WithQueueSize(queueSize))
	}

	return &Pool{
		pool:    pond.NewPool(workers, opts...),
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Dispatch enqueues t without blocking.
func (p *Pool) Dispatch(t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	if _, ok := p.pool.TrySubmit(func() { p.run(t) }); !ok {
		p.logger.Warn(p.ctx, "task dropped", "task", t.Name)
		return ErrQueueFull
	}
	return nil
}

func (p *Pool) run(t Task) {
	ctx := p.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(ctx, "task panicked", "task", t.Name, "panic", r)
		}
	}()

	if err := t.Run(ctx); err != nil {
		p.logger.Warn(ctx, "task failed", "task", t.Name, logging.Err(err))
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish. When
// ctx expires first, running tasks are cancelled, queued ones are dropped
// and ctx.Err is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.stopOnce.Do(func() {
		go func() {
			p.pool.StopAndWait()
			close(p.stopped)
		}()
	})

	select {
	case <-p.stopped:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-p.stopped
		return ctx.Err()
	}
}

// Inline runs tasks synchronously in the caller's goroutine, logging
// failures the same way Pool does.
type Inline struct {
	Logger logging.Logger
}

func (d Inline) Dispatch(t Task) error {
	if err := t.Run(context.Background()); err != nil && d.Logger != nil {
		d.Logger.Warn(context.Background(), "task failed", "task", t.Name, logging.Err(err))
	}
	return nil
}

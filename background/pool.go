package background

import (
	"context"
	"sync"
)

type job struct {
	ctx  context.Context
	task Task
}

// Pool runs tasks on a fixed set of workers fed by a bounded queue. When the
// queue is full the task is dropped rather than blocking the scheduler.
type Pool struct {
	q       chan job
	workers sync.WaitGroup
	pending inflight

	mu     sync.RWMutex
	closed bool
	once   sync.Once

	onError ErrorHandler
	onDrop  DropHandler
}

var _ Executor = (*Pool)(nil)

type PoolOption func(*Pool)

func WithErrorHandler(h ErrorHandler) PoolOption { return func(p *Pool) { p.onError = h } }

func WithDropHandler(h DropHandler) PoolOption { return func(p *Pool) { p.onDrop = h } }

func NewPool(workers, qlen int, opts ...PoolOption) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}
	p := &Pool{q: make(chan job, qlen)}
	for _, o := range opts {
		o(p)
	}
	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.workers.Done()
			for j := range p.q {
				run(j.ctx, j.task, p.onError)
				p.pending.done()
			}
		}()
	}
	return p
}

func (p *Pool) Available() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}

func (p *Pool) WaitUntil(done <-chan struct{}) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	p.pending.add()
	go func() {
		<-done
		p.pending.done()
	}()
}

func (p *Pool) Go(ctx context.Context, task Task) {
	ctx = context.WithoutCancel(ctx)
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.drop(ctx)
		return
	}
	p.pending.add()
	select {
	case p.q <- job{ctx: ctx, task: task}:
		p.mu.RUnlock()
	default:
		p.pending.done()
		p.mu.RUnlock()
		p.drop(ctx)
	}
}

// Wait blocks until no accepted task or WaitUntil registration is
// outstanding. It is safe to call while other goroutines keep scheduling;
// it then returns at some moment the pool was idle.
func (p *Pool) Wait() { p.pending.wait() }

// Pending reports outstanding tasks and WaitUntil registrations.
func (p *Pool) Pending() int { return p.pending.count() }

// Close stops accepting tasks and drains the queue. It returns ctx.Err() if
// ctx ends first; workers keep draining in that case.
func (p *Pool) Close(ctx context.Context) error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.q)
		p.mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		p.workers.Wait()
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) drop(ctx context.Context) {
	if p.onDrop != nil {
		p.onDrop(ctx)
	}
}

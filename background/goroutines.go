package background

import (
	"context"
	"sync"
)

// Goroutines starts one tracked goroutine per task. Unlike Pool it never
// drops work; use it when refresh volume is naturally bounded.
type Goroutines struct {
	pending inflight
	mu      sync.RWMutex
	closed  bool
	onError ErrorHandler
}

var _ Executor = (*Goroutines)(nil)

func NewGoroutines(onError ErrorHandler) *Goroutines {
	return &Goroutines{onError: onError}
}

func (g *Goroutines) Available() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.closed
}

func (g *Goroutines) WaitUntil(done <-chan struct{}) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return
	}
	g.pending.add()
	go func() {
		defer g.pending.done()
		<-done
	}()
}

func (g *Goroutines) Go(ctx context.Context, task Task) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return
	}
	ctx = context.WithoutCancel(ctx)
	g.pending.add()
	go func() {
		defer g.pending.done()
		run(ctx, task, g.onError)
	}()
}

// Wait blocks until no task or WaitUntil registration is outstanding. It
// may run concurrently with Go.
func (g *Goroutines) Wait() { g.pending.wait() }

func (g *Goroutines) Close(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	done := make(chan struct{})
	go func() {
		g.pending.wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

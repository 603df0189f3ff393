// Package background runs work after the caller has moved on.
//
// An Executor answers whether deferred work can run at all (Available), accepts
// fire-and-forget tasks (Go) and lets callers register pending work the host
// must not abandon (WaitUntil). Tasks receive the scheduler's context with
// cancellation stripped: request-scoped values stay visible, but the request
// finishing does not abort the task. Errors and panics stay inside the task.
package background

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrPanic marks errors recovered from a panicking task.
var ErrPanic = errors.New("background: task panicked")

// Task is a unit of deferred work. Dependencies should be captured by value
// in the closure.
type Task func(ctx context.Context) error

type Executor interface {
	// Available reports whether Go will run tasks.
	Available() bool
	// WaitUntil keeps the executor from shutting down until done is closed.
	// No-op when unavailable.
	WaitUntil(done <-chan struct{})
	// Go schedules task. It never blocks on the task and never runs it when
	// Available is false.
	Go(ctx context.Context, task Task)
}

// ErrorHandler receives task failures, including recovered panics.
type ErrorHandler func(ctx context.Context, err error)

// DropHandler is told about tasks that were refused (queue full or closed).
type DropHandler func(ctx context.Context)

// Disabled is an Executor with no background capability.
type Disabled struct{}

var _ Executor = Disabled{}

func (Disabled) Available() bool           { return false }
func (Disabled) WaitUntil(<-chan struct{}) {}
func (Disabled) Go(context.Context, Task)  {}

// run executes task, converting a panic into an ErrPanic-marked error.
func run(ctx context.Context, task Task, onError ErrorHandler) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Mark(errors.Newf("background: task panicked: %v", r), ErrPanic)
			}
		}()
		err = task(ctx)
	}()
	if err != nil && onError != nil {
		func() {
			defer func() { _ = recover() }()
			onError(ctx, err)
		}()
	}
}

// inflight counts outstanding work. Unlike sync.WaitGroup, wait may overlap
// add from a zero count; it returns at a moment the count was zero.
type inflight struct {
	mu   sync.Mutex
	idle *sync.Cond
	n    int
}

func (f *inflight) cond() *sync.Cond {
	if f.idle == nil {
		f.idle = sync.NewCond(&f.mu)
	}
	return f.idle
}

func (f *inflight) add() {
	f.mu.Lock()
	f.n++
	f.mu.Unlock()
}

func (f *inflight) done() {
	f.mu.Lock()
	f.n--
	if f.n == 0 {
		f.cond().Broadcast()
	}
	f.mu.Unlock()
}

func (f *inflight) wait() {
	f.mu.Lock()
	for f.n > 0 {
		f.cond().Wait()
	}
	f.mu.Unlock()
}

func (f *inflight) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

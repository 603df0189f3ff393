package swrcache

import "context"

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around logging stack.
// ctx is the caller's context; for background refreshes it is the scheduling
// request's context with cancellation removed.
// If Logger is nil in Options, logging is disabled.
type Logger interface {
	Debug(ctx context.Context, msg string, f Fields)
	Info(ctx context.Context, msg string, f Fields)
	Warn(ctx context.Context, msg string, f Fields)
	Error(ctx context.Context, msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(context.Context, string, Fields) {}
func (NopLogger) Info(context.Context, string, Fields)  {}
func (NopLogger) Warn(context.Context, string, Fields)  {}
func (NopLogger) Error(context.Context, string, Fields) {}

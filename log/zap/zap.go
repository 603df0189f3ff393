package zap

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/swrcache"
)

var _ swrcache.Logger = ZapLogger{}

// ZapLogger adapts a *zap.Logger. FromContext, if set, adds fields taken
// from the call's context (request IDs, tenant, ...).
type ZapLogger struct {
	L           *zap.Logger
	FromContext func(ctx context.Context) []zap.Field
}

func (z ZapLogger) Debug(ctx context.Context, msg string, f swrcache.Fields) {
	z.L.Debug(msg, z.fields(ctx, f)...)
}
func (z ZapLogger) Info(ctx context.Context, msg string, f swrcache.Fields) {
	z.L.Info(msg, z.fields(ctx, f)...)
}
func (z ZapLogger) Warn(ctx context.Context, msg string, f swrcache.Fields) {
	z.L.Warn(msg, z.fields(ctx, f)...)
}
func (z ZapLogger) Error(ctx context.Context, msg string, f swrcache.Fields) {
	z.L.Error(msg, z.fields(ctx, f)...)
}

func (z ZapLogger) fields(ctx context.Context, f swrcache.Fields) []zap.Field {
	var extra []zap.Field
	if z.FromContext != nil && ctx != nil {
		extra = z.FromContext(ctx)
	}
	if len(f) == 0 && len(extra) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f)+len(extra))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return append(out, extra...)
}

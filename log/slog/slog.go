package slog

import (
	"context"
	stdslog "log/slog"
	"sort"

	"github.com/unkn0wn-root/swrcache"
)

var _ swrcache.Logger = Logger{}

// Logger passes the call's context to the handler.
type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(ctx context.Context, msg string, f swrcache.Fields) {
	s.log(ctx, stdslog.LevelDebug, msg, f)
}
func (s Logger) Info(ctx context.Context, msg string, f swrcache.Fields) {
	s.log(ctx, stdslog.LevelInfo, msg, f)
}
func (s Logger) Warn(ctx context.Context, msg string, f swrcache.Fields) {
	s.log(ctx, stdslog.LevelWarn, msg, f)
}
func (s Logger) Error(ctx context.Context, msg string, f swrcache.Fields) {
	s.log(ctx, stdslog.LevelError, msg, f)
}

func (s Logger) log(ctx context.Context, lvl stdslog.Level, msg string, f swrcache.Fields) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.L.LogAttrs(ctx, lvl, msg, attrs(f)...)
}

func attrs(f swrcache.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range keys {
		out = append(out, stdslog.Any(k, f[k]))
	}
	return out
}

package logrus

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/swrcache"
)

var _ swrcache.Logger = LogrusLogger{}

// LogrusLogger attaches the call's context to every entry so logrus hooks
// can read request-scoped values.
type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(ctx context.Context, msg string, f swrcache.Fields) {
	l.entry(ctx, f).Debug(msg)
}
func (l LogrusLogger) Info(ctx context.Context, msg string, f swrcache.Fields) {
	l.entry(ctx, f).Info(msg)
}
func (l LogrusLogger) Warn(ctx context.Context, msg string, f swrcache.Fields) {
	l.entry(ctx, f).Warn(msg)
}
func (l LogrusLogger) Error(ctx context.Context, msg string, f swrcache.Fields) {
	l.entry(ctx, f).Error(msg)
}

func (l LogrusLogger) entry(ctx context.Context, f swrcache.Fields) *logrus.Entry {
	e := l.E
	if ctx != nil {
		e = e.WithContext(ctx)
	}
	return e.WithFields(logrus.Fields(f))
}

package logrus

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/swrcache"
)

type reqKey struct{}

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := LogrusLogger{E: logrus.NewEntry(base)}

	ctx := context.WithValue(context.Background(), reqKey{}, "r1")
	l.Error(ctx, "provider get failed", swrcache.Fields{"key": "user:1"})

	e := hook.LastEntry()
	require.NotNil(t, e)
	assert.Equal(t, logrus.ErrorLevel, e.Level)
	assert.Equal(t, "provider get failed", e.Message)
	assert.Equal(t, "user:1", e.Data["key"])
	assert.Equal(t, "r1", e.Context.Value(reqKey{}))
}

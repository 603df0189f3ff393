package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	p := New(Config{})
	defer p.Close(ctx)

	_, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	in := []byte("v1")
	ok, err = p.Set(ctx, "k", in, 0)
	require.NoError(t, err)
	require.True(t, ok)
	in[0] = 'x' // caller mutation must not leak into the store

	got, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, p.Del(ctx, "k"))
	require.NoError(t, p.Del(ctx, "k"))
	_, ok, _ = p.Get(ctx, "k")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	p := New(Config{Now: clk.Now})
	defer p.Close(ctx)

	_, _ = p.Set(ctx, "short", []byte("a"), time.Second)
	_, _ = p.Set(ctx, "forever", []byte("b"), 0)

	clk.Advance(999 * time.Millisecond)
	_, ok, _ := p.Get(ctx, "short")
	assert.True(t, ok)

	clk.Advance(time.Millisecond)
	_, ok, _ = p.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = p.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, 1, p.Len())
}

func TestListSkipsExpiredAndOtherPrefixes(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	p := New(Config{Now: clk.Now})
	defer p.Close(ctx)

	_, _ = p.Set(ctx, "user:1:a", []byte("1"), 0)
	_, _ = p.Set(ctx, "user:1:b", []byte("1"), time.Second)
	_, _ = p.Set(ctx, "user:10:a", []byte("1"), 0)
	_, _ = p.Set(ctx, "user:2:a", []byte("1"), 0)

	keys, err := p.List(ctx, "user:1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1:a", "user:1:b"}, keys)

	clk.Advance(2 * time.Second)
	keys, err = p.List(ctx, "user:1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1:a"}, keys)

	all, err := p.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	p := New(Config{Now: clk.Now})
	defer p.Close(ctx)

	_, _ = p.Set(ctx, "a", []byte("1"), time.Second)
	_, _ = p.Set(ctx, "b", []byte("1"), 0)
	clk.Advance(time.Minute)
	p.Sweep()
	assert.Equal(t, 1, p.Len())
}

func TestSweepLoopStopsOnClose(t *testing.T) {
	p := New(Config{SweepInterval: time.Millisecond})
	_, _ = p.Set(context.Background(), "a", []byte("1"), time.Nanosecond)
	require.Eventually(t, func() bool { return p.Len() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))
}

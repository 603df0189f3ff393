package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T, opts ...Option) *Provider {
	t.Helper()
	p, err := Open(context.Background(), ":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	p := openTest(t)

	_, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Set(ctx, "k", []byte{0, 'a', 0xff}, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	got, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 'a', 0xff}, got)

	_, err = p.Set(ctx, "k", []byte("v2"), 0)
	require.NoError(t, err)
	got, _, _ = p.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, p.Del(ctx, "k"))
	require.NoError(t, p.Del(ctx, "k"))
	_, ok, _ = p.Get(ctx, "k")
	assert.False(t, ok)
}

func TestExpiryAndPurge(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	p := openTest(t, WithClock(func() time.Time { return now }), WithExpiryCheck(0))

	_, _ = p.Set(ctx, "a", []byte("1"), time.Second)
	_, _ = p.Set(ctx, "b", []byte("1"), time.Second)
	_, _ = p.Set(ctx, "c", []byte("1"), 0)

	now = now.Add(time.Second)
	_, ok, err := p.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := p.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n) // "a" was already dropped by Get
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	p := openTest(t, WithClock(func() time.Time { return now }))

	for _, k := range []string{"user:1:a", "user:1:b", "user:10:a", "user:2:profile", "user_1:x"} {
		_, err := p.Set(ctx, k, []byte("x"), time.Minute)
		require.NoError(t, err)
	}
	_, _ = p.Set(ctx, "user:1:old", []byte("x"), time.Second)
	now = now.Add(2 * time.Second)

	keys, err := p.List(ctx, "user:1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1:a", "user:1:b"}, keys)

	all, err := p.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestFileDatabasePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	p, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = p.Set(ctx, "k", []byte("v"), 0)
	require.NoError(t, err)
	require.NoError(t, p.Close(ctx))

	p, err = Open(ctx, path)
	require.NoError(t, err)
	defer p.Close(ctx)
	got, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

package promhooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/swrcache"
	"github.com/unkn0wn-root/swrcache/provider/memory"
	"github.com/unkn0wn-root/swrcache/schema"
)

func TestCounters(t *testing.T) {
	h, err := New("swr", prometheus.NewRegistry())
	require.NoError(t, err)

	h.Lookup("k", swrcache.StateFresh)
	h.Lookup("k", swrcache.StateFresh)
	h.Lookup("k", swrcache.StateMiss)
	h.RefreshFailed("k", errors.New("x"))
	h.ProviderError("get", "k", errors.New("x"))
	h.PrefixInvalidated("user:", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.lookups.WithLabelValues("fresh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.lookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.refreshes.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.providerErrs.WithLabelValues("get")))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.prefixDeleted))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New("swr", reg)
	require.NoError(t, err)
	_, err = New("swr", reg)
	assert.Error(t, err)
}

func TestWiredIntoCache(t *testing.T) {
	ctx := context.Background()
	h, err := New("swr", prometheus.NewRegistry())
	require.NoError(t, err)
	c, err := swrcache.New(swrcache.Options{Provider: memory.New(memory.Config{}), Hooks: h})
	require.NoError(t, err)
	defer c.Close(ctx)

	s := schema.New[string]()
	p := swrcache.Policy{TTL: time.Minute}
	compute := func(context.Context) (string, error) { return "v", nil }
	for i := 0; i < 3; i++ {
		_, err := swrcache.Fetch(ctx, c, "k", s, p, compute)
		require.NoError(t, err)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(h.lookups.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.lookups.WithLabelValues("fresh")))
}

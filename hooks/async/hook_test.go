package asynchook

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unkn0wn-root/swrcache"
)

type countHooks struct {
	swrcache.NopHooks
	mu      sync.Mutex
	lookups int
	block   chan struct{}
}

func (c *countHooks) Lookup(string, swrcache.State) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
}

func TestDeliversBeforeClose(t *testing.T) {
	inner := &countHooks{}
	h := New(inner, 2, 16)
	for i := 0; i < 10; i++ {
		h.Lookup("k", swrcache.StateFresh)
	}
	h.Close()
	assert.Equal(t, 10, inner.lookups)
	assert.Equal(t, uint64(0), h.Dropped())

	h.Lookup("k", swrcache.StateFresh)
	assert.Equal(t, uint64(1), h.Dropped())
	h.Close()
}

func TestDropsWhenFull(t *testing.T) {
	inner := &countHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	h.Lookup("k", swrcache.StateFresh) // picked up by the worker, then blocks
	assert.Eventually(t, func() bool { return len(h.q) == 0 }, time.Second, time.Millisecond)
	h.Lookup("k", swrcache.StateFresh) // queued
	h.Lookup("k", swrcache.StateFresh) // dropped
	close(inner.block)
	h.Close()

	assert.Equal(t, 2, inner.lookups)
	assert.Equal(t, uint64(1), h.Dropped())
}

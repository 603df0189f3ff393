package swrcache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/swrcache/background"
	"github.com/unkn0wn-root/swrcache/codec"
	pr "github.com/unkn0wn-root/swrcache/provider"
)

// Shaper exposes the canonical shape description hashed by auto-versioning.
type Shaper interface {
	Shape() string
}

// Schema is what the cache needs from a value schema. *schema.Schema[V]
// implements it.
type Schema[V any] interface {
	Shaper
	Format() codec.Format
	// Encode validates v and serializes it.
	Encode(v V) ([]byte, error)
	// Decode parses b strictly and validates the result.
	Decode(b []byte) (V, error)
}

// Compute produces a fresh value on a miss or a background refresh.
type Compute[V any] func(ctx context.Context) (V, error)

// Entry is a decoded stored value and the time it was computed.
type Entry[V any] struct {
	Value      V
	ComputedAt time.Time
}

// Policy is the per-call cache behavior.
type Policy struct {
	// TTL is the freshness window. 0 uses Options.DefaultTTL.
	TTL time.Duration
	// SWR extends TTL with a window in which a stale value is served while
	// it is refreshed in the background. 0 disables it.
	SWR time.Duration
	// Version prefixes the key with a literal version.
	Version string
	// AutoVersion prefixes the key with a hash of the schema's shape.
	// Mutually exclusive with Version.
	AutoVersion bool
}

// Options configure a Cache. Only Provider is required.
type Options struct {
	Provider pr.Provider

	Executor   background.Executor // nil => background.Disabled (no SWR refreshes)
	Logger     Logger              // nil => NopLogger
	Hooks      Hooks               // nil => NopHooks
	Namespace  string              // optional key prefix, joined with ':'
	DefaultTTL time.Duration       // Policy.TTL == 0 => this; 0 => 10m
	Disabled   bool                // Fetch always computes, reads miss, writes are no-ops
	Now        func() time.Time    // clock; nil => time.Now
}

func New(opts Options) (*Cache, error) {
	return newCache(opts)
}

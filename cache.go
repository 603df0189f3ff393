package swrcache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/swrcache/background"
	"github.com/unkn0wn-root/swrcache/internal/wire"
	pr "github.com/unkn0wn-root/swrcache/provider"
)

// Cache holds the injected capabilities. It keeps no entries itself: all
// state lives in the provider. Safe for concurrent use.
type Cache struct {
	provider   pr.Provider
	exec       background.Executor
	log        Logger
	hooks      Hooks
	ns         string
	defaultTTL time.Duration
	enabled    bool
	now        func() time.Time
}

func newCache(opts Options) (*Cache, error) {
	if opts.Provider == nil {
		return nil, ErrNilProvider
	}
	if opts.DefaultTTL < 0 {
		return nil, errors.Wrapf(ErrInvalidPolicy, "negative default ttl %s", opts.DefaultTTL)
	}

	c := &Cache{
		provider: opts.Provider,
		ns:       opts.Namespace,
		enabled:  !opts.Disabled,
	}

	// defaults
	c.exec = coalesce[background.Executor](opts.Executor, background.Disabled{})
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, defaultTTL)
	c.now = opts.Now
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

func (c *Cache) Enabled() bool { return c.enabled }

// Close shuts the executor down first so queued refreshes can still write,
// then closes the provider.
func (c *Cache) Close(ctx context.Context) error {
	var err error
	if cl, ok := c.exec.(interface{ Close(context.Context) error }); ok {
		err = cl.Close(ctx)
	}
	return errors.CombineErrors(err, c.provider.Close(ctx))
}

// Get returns the stored value for key. A missing entry is (zero, false, nil).
// Get does not look at TTL or SWR: an entry the provider still holds is
// returned however old it is.
func Get[V any](ctx context.Context, c *Cache, key string, s Schema[V], p Policy) (V, bool, error) {
	e, ok, err := GetEntry(ctx, c, key, s, p)
	return e.Value, ok, err
}

// GetEntry is Get that also reports when the value was computed.
func GetEntry[V any](ctx context.Context, c *Cache, key string, s Schema[V], p Policy) (Entry[V], bool, error) {
	if s == nil {
		return Entry[V]{}, false, ErrNoSchema
	}
	k, err := c.storageKey(key, p, s)
	if err != nil {
		return Entry[V]{}, false, err
	}
	if !c.enabled {
		return Entry[V]{}, false, nil
	}
	return getEntry(ctx, c, k, s)
}

// Set stores v under key as computed now, expiring after TTL+SWR.
func Set[V any](ctx context.Context, c *Cache, key string, v V, s Schema[V], p Policy) error {
	if s == nil {
		return ErrNoSchema
	}
	k, err := c.storageKey(key, p, s)
	if err != nil {
		return err
	}
	if !c.enabled {
		return nil
	}
	ttl, swr := c.windows(p)
	return put(ctx, c, k, v, s, ttl+swr)
}

// Invalidate deletes key. s is only needed when p.AutoVersion is set; pass
// nil otherwise. Deleting a missing key is not an error.
func Invalidate[V any](ctx context.Context, c *Cache, key string, s Schema[V], p Policy) error {
	var sh Shaper
	if s != nil {
		sh = s
	}
	k, err := c.storageKey(key, p, sh)
	if err != nil {
		return err
	}
	if !c.enabled {
		return nil
	}
	return c.del(ctx, k)
}

// InvalidatePrefix deletes every key starting with prefix (after the
// namespace). Prefixes match literally: "user:1:" does not match "user:10:".
// Keys are deleted one by one; the first failure stops the sweep and earlier
// deletions stay deleted.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if !c.enabled {
		return nil
	}
	full := c.nsKey(prefix)
	ks, err := c.provider.List(ctx, full)
	if err != nil {
		c.hooks.ProviderError("list", full, err)
		c.log.Error(ctx, "provider list failed", Fields{"prefix": full, "err": err})
		return &ClientError{Op: "list", Key: full, Reason: "provider list failed", Err: err}
	}
	for i, k := range ks {
		if err := c.provider.Del(ctx, k); err != nil {
			c.hooks.ProviderError("del", k, err)
			c.log.Error(ctx, "prefix invalidation aborted", Fields{
				"prefix": full, "key": k, "deleted": i, "total": len(ks), "err": err,
			})
			return &ClientError{
				Op:     "invalidate_prefix",
				Key:    full,
				Reason: fmt.Sprintf("deleted %d of %d keys, failed at %q", i, len(ks), k),
				Err:    err,
			}
		}
	}
	c.hooks.PrefixInvalidated(full, len(ks))
	c.log.Debug(ctx, "prefix invalidated", Fields{"prefix": full, "deleted": len(ks)})
	return nil
}

// Keys lists the storage keys under prefix (after the namespace), sorted.
// Returned keys include the namespace and any version segment.
func (c *Cache) Keys(ctx context.Context, prefix string) ([]string, error) {
	full := c.nsKey(prefix)
	ks, err := c.provider.List(ctx, full)
	if err != nil {
		c.hooks.ProviderError("list", full, err)
		return nil, &ClientError{Op: "list", Key: full, Reason: "provider list failed", Err: err}
	}
	sort.Strings(ks)
	return ks, nil
}

func (c *Cache) nsKey(k string) string {
	if c.ns == "" {
		return k
	}
	return c.ns + ":" + k
}

func (c *Cache) storageKey(raw string, p Policy, s Shaper) (string, error) {
	k, err := ResolveKey(raw, p, s)
	if err != nil {
		return "", err
	}
	return c.nsKey(k), nil
}

// windows returns the effective TTL and SWR. p must already be validated.
func (c *Cache) windows(p Policy) (ttl, swr time.Duration) {
	return coalesce(p.TTL, c.defaultTTL), p.SWR
}

func (c *Cache) del(ctx context.Context, k string) error {
	if err := c.provider.Del(ctx, k); err != nil {
		c.hooks.ProviderError("del", k, err)
		c.log.Error(ctx, "provider del failed", Fields{"key": k, "err": err})
		return &ClientError{Op: "del", Key: k, Reason: "provider del failed", Err: err}
	}
	return nil
}

func getEntry[V any](ctx context.Context, c *Cache, k string, s Schema[V]) (Entry[V], bool, error) {
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil {
		c.hooks.ProviderError("get", k, err)
		c.log.Error(ctx, "provider get failed", Fields{"key": k, "err": err})
		return Entry[V]{}, false, &ClientError{Op: "get", Key: k, Reason: "provider get failed", Err: err}
	}
	if !ok {
		return Entry[V]{}, false, nil
	}
	payload, ms, err := wire.Decode(s.Format(), raw)
	if err != nil {
		return Entry[V]{}, false, c.decodeFailed(ctx, k, err)
	}
	v, err := s.Decode(payload)
	if err != nil {
		return Entry[V]{}, false, c.decodeFailed(ctx, k, err)
	}
	return Entry[V]{Value: v, ComputedAt: time.UnixMilli(ms)}, true, nil
}

func (c *Cache) decodeFailed(ctx context.Context, k string, err error) error {
	c.hooks.DecodeFailed(k, err)
	c.log.Warn(ctx, "stored entry failed to decode", Fields{"key": k, "err": err})
	return &DecodeError{Key: k, Err: err}
}

// put encodes v as computed now and writes it with the given storage TTL.
// A store rejecting the write under pressure is not an error.
func put[V any](ctx context.Context, c *Cache, k string, v V, s Schema[V], storageTTL time.Duration) error {
	payload, err := s.Encode(v)
	if err != nil {
		return errors.Wrapf(err, "swrcache: encode %q", k)
	}
	raw, err := wire.Encode(s.Format(), payload, c.now().UnixMilli())
	if err != nil {
		return errors.Wrapf(err, "swrcache: envelope %q", k)
	}
	ok, err := c.provider.Set(ctx, k, raw, storageTTL)
	if err != nil {
		c.hooks.ProviderError("set", k, err)
		c.log.Error(ctx, "provider set failed", Fields{"key": k, "err": err})
		return &ClientError{Op: "set", Key: k, Reason: "provider set failed", Err: err}
	}
	if !ok {
		c.hooks.ProviderSetRejected(k)
		c.log.Debug(ctx, "set rejected by provider (pressure)", Fields{"key": k})
	}
	return nil
}

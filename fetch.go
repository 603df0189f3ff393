package swrcache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// State is the age class of a stored entry.
type State uint8

const (
	StateMiss    State = iota // nothing stored
	StateFresh                // age <= TTL
	StateStale                // TTL < age <= TTL+SWR
	StateExpired              // older than TTL+SWR
)

func (s State) String() string {
	switch s {
	case StateMiss:
		return "miss"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Classify places an entry of the given age in its window. Negative ages
// (clock skew between writers) count as fresh.
func Classify(age, ttl, swr time.Duration) State {
	switch {
	case age <= ttl:
		return StateFresh
	case swr > 0 && age <= ttl+swr:
		return StateStale
	default:
		return StateExpired
	}
}

var errNilCompute = errors.New("swrcache: compute is nil")

// Fetch returns the value cached under key, computing and storing it when
// absent or too old.
//
//   - fresh: the stored value; compute is not called.
//   - stale: the stored value, and compute is scheduled on the executor to
//     overwrite the entry. Nothing is scheduled when the executor is
//     unavailable. Refresh failures are logged and hooked, never returned.
//   - miss or expired: compute runs inline and its result is stored with
//     expiry TTL+SWR. A compute error is returned as is.
//
// An entry that cannot be decoded fails the call with *DecodeError; it is
// not treated as a miss. When the cache is disabled compute always runs and
// nothing is stored.
func Fetch[V any](ctx context.Context, c *Cache, key string, s Schema[V], p Policy, compute Compute[V]) (V, error) {
	var zero V
	if s == nil {
		return zero, ErrNoSchema
	}
	if compute == nil {
		return zero, errNilCompute
	}
	k, err := c.storageKey(key, p, s)
	if err != nil {
		return zero, err
	}
	if !c.enabled {
		return compute(ctx)
	}
	ttl, swr := c.windows(p)

	e, ok, err := getEntry(ctx, c, k, s)
	if err != nil {
		return zero, err
	}
	state := StateMiss
	if ok {
		state = Classify(c.now().Sub(e.ComputedAt), ttl, swr)
	}
	c.hooks.Lookup(k, state)

	switch state {
	case StateFresh:
		return e.Value, nil
	case StateStale:
		c.revalidate(ctx, k, func(ctx context.Context) error {
			v, err := compute(ctx)
			if err != nil {
				return errors.Wrap(err, "compute")
			}
			return put(ctx, c, k, v, s, ttl+swr)
		})
		return e.Value, nil
	}

	v, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	if err := put(ctx, c, k, v, s, ttl+swr); err != nil {
		return zero, err
	}
	return v, nil
}

// revalidate hands refresh to the executor. The task runs with ctx's values
// but not its cancellation.
func (c *Cache) revalidate(ctx context.Context, k string, refresh func(context.Context) error) {
	if !c.exec.Available() {
		c.hooks.RefreshSkipped(k)
		c.log.Debug(ctx, "serving stale entry without refresh (executor unavailable)", Fields{"key": k})
		return
	}
	c.hooks.RefreshScheduled(k)
	c.exec.Go(ctx, func(ctx context.Context) error {
		if err := refresh(ctx); err != nil {
			c.hooks.RefreshFailed(k, err)
			c.log.Warn(ctx, "background refresh failed", Fields{"key": k, "err": err})
			return err
		}
		c.log.Debug(ctx, "background refresh stored", Fields{"key": k})
		return nil
	})
}

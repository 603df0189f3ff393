// Package provider defines the storage abstraction used by swrcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). If a store performs internal transforms
// (e.g., an expiry header), they MUST be fully reversed before Get returns.
//
// Expiry is the provider's job: once a key's TTL has passed, Get must report a
// miss and List must not return it.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs and prefix listing.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// List returns the names of live keys starting with prefix, in no
	// particular order. An empty prefix lists every key.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources.
	Close(ctx context.Context) error
}

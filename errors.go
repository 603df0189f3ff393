package swrcache

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNilProvider is returned by New without a Provider.
	ErrNilProvider = errors.New("swrcache: provider is required")
	// ErrInvalidPolicy rejects negative durations and a literal version
	// combined with AutoVersion.
	ErrInvalidPolicy = errors.New("swrcache: invalid policy")
	// ErrNoSchema is returned when an operation needs a schema (decoding,
	// encoding or auto-versioning) and none was given.
	ErrNoSchema = errors.New("swrcache: schema is required")
)

// ClientError reports a failing backing store call. Err is the provider's
// own error.
type ClientError struct {
	Op     string // get, set, del, list, invalidate_prefix
	Key    string // storage key, or the full prefix for list/invalidate_prefix
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("swrcache: %s %q: %s: %v", e.Op, e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("swrcache: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// DecodeError reports a stored entry that could not be decoded into the
// schema's type: a malformed envelope, a codec failure or a validation
// failure. Fetch never treats it as a miss, and the entry is left in place.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("swrcache: decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

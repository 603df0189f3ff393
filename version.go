package swrcache

import (
	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/swrcache/internal/keys"
)

// ResolveVersion derives a version tag from a schema's shape: a fixed-width
// lowercase base-36 hash. Equal shapes always give equal tags.
func ResolveVersion(s Shaper) string {
	return keys.Version(s.Shape())
}

// ResolveKey applies p's versioning to raw. Without a version the key is
// unchanged; otherwise it becomes "<version>:<raw>". s is only consulted
// for AutoVersion.
func ResolveKey(raw string, p Policy, s Shaper) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	switch {
	case p.AutoVersion:
		if s == nil {
			return "", errors.Wrap(ErrNoSchema, "auto version")
		}
		return keys.Join(ResolveVersion(s), raw), nil
	case p.Version != "":
		return keys.Join(p.Version, raw), nil
	default:
		return raw, nil
	}
}

func (p Policy) validate() error {
	if p.TTL < 0 || p.SWR < 0 {
		return errors.Wrapf(ErrInvalidPolicy, "negative duration (ttl=%s swr=%s)", p.TTL, p.SWR)
	}
	if p.AutoVersion && p.Version != "" {
		return errors.Wrap(ErrInvalidPolicy, "Version and AutoVersion are mutually exclusive")
	}
	return nil
}

package bigcache

import (
	"context"
	"encoding/binary"
	"strings"
	"time"

	bc "github.com/allegro/bigcache/v3"
	"github.com/cockroachdb/errors"

	pr "github.com/unkn0wn-root/swrcache/provider"
)

// headerLen is the per-entry expiry deadline prefix (unix nanos, 0 = none).
// BigCache only knows a global LifeWindow, so per-key TTLs are enforced here.
const headerLen = 8

const defaultLifeWindow = 24 * time.Hour

type Provider struct {
	c   *bc.BigCache
	now func() time.Time
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	// LifeWindow is BigCache's global eviction age; it caps every TTL.
	// Defaults to 24h.
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
	// Now overrides the clock used for per-key deadlines.
	Now func() time.Time
}

func New(cfg Config) (*Provider, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = defaultLifeWindow
	}
	conf := bc.DefaultConfig(life)
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, errors.Wrap(err, "bigcache: new cache")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{c: c, now: now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "bigcache get %q", key)
	}
	v, live := p.unwrap(b)
	if !live {
		_ = p.c.Delete(key)
		return nil, false, nil
	}
	return v, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var deadline int64
	if ttl > 0 {
		deadline = p.now().Add(ttl).UnixNano()
	}
	buf := make([]byte, headerLen+len(value))
	binary.BigEndian.PutUint64(buf, uint64(deadline))
	copy(buf[headerLen:], value)
	if err := p.c.Set(key, buf); err != nil {
		return false, errors.Wrapf(err, "bigcache set %q", key)
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := p.c.Delete(key)
	if err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return errors.Wrapf(err, "bigcache del %q", key)
	}
	return nil
}

func (p *Provider) List(_ context.Context, prefix string) ([]string, error) {
	out := make([]string, 0)
	it := p.c.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			// entry evicted mid-iteration
			continue
		}
		if !strings.HasPrefix(e.Key(), prefix) {
			continue
		}
		if _, live := p.unwrap(e.Value()); live {
			out = append(out, e.Key())
		}
	}
	return out, nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}

// unwrap strips the deadline header; entries too short to carry one are dead.
func (p *Provider) unwrap(b []byte) ([]byte, bool) {
	if len(b) < headerLen {
		return nil, false
	}
	deadline := int64(binary.BigEndian.Uint64(b[:headerLen]))
	if deadline != 0 && p.now().UnixNano() >= deadline {
		return nil, false
	}
	return b[headerLen:], true
}

package ristretto

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/swrcache/provider"
)

var ErrInvalidConfig = errors.New("ristretto: invalid config")

// Provider stores values in ristretto. Ristretto hashes keys and cannot
// enumerate them, so a side index of admitted key names backs List. Index
// entries are pruned whenever ristretto no longer has the key.
type Provider struct {
	c    *rc.Cache
	keys sync.Map // string -> struct{}
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // total bytes of values held
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, ErrInvalidConfig
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, errors.Wrap(err, "ristretto: new cache")
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		p.keys.Delete(key)
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		p.keys.Delete(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set costs each entry by its length and waits for the write buffer to drain
// so the value is visible to the next Get. ok=false means the admission
// policy dropped the write.
func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	if !p.c.SetWithTTL(key, cp, int64(len(cp)), ttl) {
		return false, nil
	}
	p.c.Wait()
	if _, ok := p.c.Get(key); !ok {
		return false, nil
	}
	p.keys.Store(key, struct{}{})
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	p.keys.Delete(key)
	return nil
}

func (p *Provider) List(_ context.Context, prefix string) ([]string, error) {
	out := make([]string, 0)
	p.keys.Range(func(k, _ any) bool {
		key := k.(string)
		if !strings.HasPrefix(key, prefix) {
			return true
		}
		if _, ok := p.c.Get(key); !ok {
			p.keys.Delete(key)
			return true
		}
		out = append(out, key)
		return true
	})
	sort.Strings(out)
	return out, nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when Config.Metrics is set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }

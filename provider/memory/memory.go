package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/swrcache/provider"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && !now.Before(e.exp)
}

// Memory is an in-process Provider. Expired entries are invisible immediately
// and reclaimed lazily on access or by the optional sweep loop.
type Memory struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ pr.Provider = (*Memory)(nil)

type Config struct {
	// SweepInterval enables a background loop deleting expired entries; 0 disables it.
	SweepInterval time.Duration
	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time
}

func New(cfg Config) *Memory {
	p := &Memory{m: make(map[string]entry), now: cfg.Now}
	if p.now == nil {
		p.now = time.Now
	}
	if cfg.SweepInterval > 0 {
		p.ticker = time.NewTicker(cfg.SweepInterval)
		p.stopCh = make(chan struct{})
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.ticker.C:
					p.Sweep()
				case <-p.stopCh:
					return
				}
			}
		}()
	}
	return p
}

func (p *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	e, ok := p.m[key]
	p.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(p.now()) {
		p.mu.Lock()
		if cur, ok := p.m[key]; ok && cur.expired(p.now()) {
			delete(p.m, key)
		}
		p.mu.Unlock()
		return nil, false, nil
	}
	cp := make([]byte, len(e.v))
	copy(cp, e.v)
	return cp, true, nil
}

func (p *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = p.now().Add(ttl)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	p.mu.Lock()
	p.m[key] = entry{v: cp, exp: exp}
	p.mu.Unlock()
	return true, nil
}

func (p *Memory) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

// List returns live keys under prefix in lexical order.
func (p *Memory) List(_ context.Context, prefix string) ([]string, error) {
	now := p.now()
	p.mu.RLock()
	out := make([]string, 0)
	for k, e := range p.m {
		if strings.HasPrefix(k, prefix) && !e.expired(now) {
			out = append(out, k)
		}
	}
	p.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

// Sweep deletes every expired entry.
func (p *Memory) Sweep() {
	now := p.now()
	p.mu.Lock()
	for k, e := range p.m {
		if e.expired(now) {
			delete(p.m, k)
		}
	}
	p.mu.Unlock()
}

// Len reports stored entries, including expired ones not yet swept.
func (p *Memory) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.m)
}

func (p *Memory) Close(_ context.Context) error {
	p.closeOnce.Do(func() {
		if p.stopCh != nil {
			close(p.stopCh)
			p.ticker.Stop()
			p.wg.Wait()
		}
	})
	return nil
}

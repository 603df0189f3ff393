package valkey

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	valkeylib "github.com/valkey-io/valkey-go"

	pr "github.com/unkn0wn-root/swrcache/provider"
	"github.com/unkn0wn-root/swrcache/provider/redis"
)

var ErrNilClient = errors.New("valkey provider: nil client")

const scanCount = 100

type Valkey struct {
	c           valkeylib.Client
	closeClient bool
}

var _ pr.Provider = (*Valkey)(nil)

type Config struct {
	Client      valkeylib.Client
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Valkey, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Valkey{c: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (p *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Do(ctx, p.c.B().Get().Key(key).Build()).AsBytes()
	if valkeylib.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "valkey get %q", key)
	}
	return b, true, nil
}

func (p *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	set := p.c.B().Set().Key(key).Value(valkeylib.BinaryString(value))
	var err error
	if ttl > 0 {
		err = p.c.Do(ctx, set.Ex(ExpirySeconds(ttl)).Build()).Error()
	} else {
		err = p.c.Do(ctx, set.Build()).Error()
	}
	if err != nil {
		return false, errors.Wrapf(err, "valkey set %q", key)
	}
	return true, nil
}

func (p *Valkey) Del(ctx context.Context, key string) error {
	if err := p.c.Do(ctx, p.c.B().Del().Key(key).Build()).Error(); err != nil {
		return errors.Wrapf(err, "valkey del %q", key)
	}
	return nil
}

// List pages through SCAN MATCH until the cursor returns to zero.
func (p *Valkey) List(ctx context.Context, prefix string) ([]string, error) {
	match := redis.EscapeGlob(prefix) + "*"
	seen := make(map[string]struct{})
	out := make([]string, 0)
	var cursor uint64
	for {
		cmd := p.c.B().Scan().Cursor(cursor).Match(match).Count(scanCount).Build()
		res, err := p.c.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, errors.Wrapf(err, "valkey scan %q", prefix)
		}
		for _, k := range res.Elements {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
		cursor = res.Cursor
		if cursor == 0 {
			return out, nil
		}
	}
}

func (p *Valkey) Close(context.Context) error {
	if p.closeClient {
		p.c.Close()
	}
	return nil
}

// ExpirySeconds rounds ttl up to whole seconds; EX rejects 0. Entries may
// outlive ttl by under a second, never the other way around.
func ExpirySeconds(ttl time.Duration) time.Duration {
	if ttl <= time.Second {
		return time.Second
	}
	if r := ttl % time.Second; r != 0 {
		ttl += time.Second - r
	}
	return ttl
}

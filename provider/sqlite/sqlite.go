// Package sqlite stores entries in a SQLite table through mattn/go-sqlite3.
// It suits single-host deployments that want entries to survive restarts and
// is the backend the swrcachectl tests drive.
package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	pr "github.com/unkn0wn-root/swrcache/provider"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS swrcache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_swrcache_expires_at ON swrcache(expires_at);`

type Provider struct {
	db  *sql.DB
	now func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var _ pr.Provider = (*Provider)(nil)

type Option func(*Provider, *settings)

type settings struct {
	expiryCheck time.Duration
}

// WithExpiryCheck sets how often expired rows are purged. 0 disables purging;
// expired rows are still invisible to Get and List.
func WithExpiryCheck(d time.Duration) Option {
	return func(_ *Provider, s *settings) { s.expiryCheck = d }
}

// WithClock overrides time.Now for expiry bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(p *Provider, _ *settings) { p.now = now }
}

// Open opens (or creates) the database at path. An empty path or ":memory:"
// uses a private in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*Provider, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: open %q", path)
	}
	// every pooled connection to :memory: would be a distinct database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlite: create table")
	}

	p := &Provider{db: db, now: time.Now}
	s := settings{expiryCheck: time.Minute}
	for _, o := range opts {
		o(p, &s)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	if s.expiryCheck > 0 {
		p.wg.Add(1)
		go p.run(runCtx, s.expiryCheck)
	}
	return p, nil
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data      []byte
		expiresAt int64
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM swrcache WHERE key = ?`, key,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "sqlite get %q", key)
	}
	if expiresAt != 0 && expiresAt <= p.now().UnixNano() {
		_, _ = p.db.ExecContext(ctx, `DELETE FROM swrcache WHERE key = ? AND expires_at = ?`, key, expiresAt)
		return nil, false, nil
	}
	return data, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = p.now().Add(ttl).UnixNano()
	}
	if value == nil {
		value = []byte{}
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO swrcache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return false, errors.Wrapf(err, "sqlite set %q", key)
	}
	return true, nil
}

func (p *Provider) Del(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM swrcache WHERE key = ?`, key); err != nil {
		return errors.Wrapf(err, "sqlite del %q", key)
	}
	return nil
}

func (p *Provider) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT key FROM swrcache
		WHERE substr(key, 1, length(?)) = ? AND (expires_at = 0 OR expires_at > ?)
		ORDER BY key`,
		prefix, prefix, p.now().UnixNano(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite list %q", prefix)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "sqlite list scan")
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "sqlite list %q", prefix)
	}
	return out, nil
}

// Purge deletes expired rows and reports how many were removed.
func (p *Provider) Purge(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM swrcache WHERE expires_at != 0 AND expires_at <= ?`, p.now().UnixNano())
	if err != nil {
		return 0, errors.Wrap(err, "sqlite purge")
	}
	return res.RowsAffected()
}

func (p *Provider) Close(_ context.Context) error {
	var dbErr error
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
		dbErr = p.db.Close()
	})
	return dbErr
}

func (p *Provider) run(ctx context.Context, every time.Duration) {
	defer p.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.Purge(ctx)
		}
	}
}

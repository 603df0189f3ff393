package ctl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/swrcache"
	"github.com/unkn0wn-root/swrcache/provider/sqlite"
	"github.com/unkn0wn-root/swrcache/schema"
)

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// sqlite expiry runs on the real clock, so entries are written "now".
var t0 = time.Now().Truncate(time.Second)

// seed writes entries into a fresh sqlite file and returns its path.
func seed(t *testing.T, ns string, entries map[string]swrcache.Policy) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	p, err := sqlite.Open(ctx, path, sqlite.WithClock(func() time.Time { return t0 }))
	require.NoError(t, err)
	c, err := swrcache.New(swrcache.Options{
		Provider:  p,
		Namespace: ns,
		Now:       func() time.Time { return t0 },
	})
	require.NoError(t, err)
	users := schema.New[user]()
	for k, pol := range entries {
		require.NoError(t, swrcache.Set(ctx, c, k, user{ID: k, Name: "Ada"}, users, pol))
	}
	require.NoError(t, c.Close(ctx))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(func() time.Time { return t0.Add(90 * time.Second) })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGet(t *testing.T) {
	path := seed(t, "", map[string]swrcache.Policy{"user:1": {TTL: time.Hour}})

	out, err := run(t, "--backend", "sqlite", "--dsn", path, "get", "user:1", "--ttl", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "computed at: "+t0.UTC().Format(time.RFC3339)+" (1 minute ago)")
	assert.Contains(t, out, "state:       fresh")
	assert.Contains(t, out, `"name": "Ada"`)

	out, err = run(t, "--backend", "sqlite", "--dsn", path, "get", "user:1", "--ttl", "1m", "--swr", "1d")
	require.NoError(t, err)
	assert.Contains(t, out, "state:       stale")

	out, err = run(t, "--backend", "sqlite", "--dsn", path, "get", "user:2")
	require.NoError(t, err)
	assert.Equal(t, "user:2: miss\n", out)
}

func TestGetRejectsBadDuration(t *testing.T) {
	path := seed(t, "", nil)
	_, err := run(t, "--backend", "sqlite", "--dsn", path, "get", "k", "--ttl", "soon")
	assert.Error(t, err)
}

func TestLsAndRmWithVersionAndNamespace(t *testing.T) {
	path := seed(t, "app", map[string]swrcache.Policy{
		"user:1":  {Version: "v1"},
		"user:2":  {Version: "v1"},
		"order:1": {},
	})
	base := []string{"--backend", "sqlite", "--dsn", path, "--namespace", "app"}

	out, err := run(t, append(base, "ls")...)
	require.NoError(t, err)
	assert.Equal(t, "app:order:1\napp:v1:user:1\napp:v1:user:2\n", out)

	out, err = run(t, append(base, "rm", "user:1", "--version", "v1")...)
	require.NoError(t, err)
	assert.Equal(t, "invalidated user:1\n", out)

	out, err = run(t, append(base, "ls", "v1:")...)
	require.NoError(t, err)
	assert.Equal(t, "app:v1:user:2\n", out)
}

func TestRmPrefix(t *testing.T) {
	path := seed(t, "", map[string]swrcache.Policy{
		"user:1:profile":  {},
		"user:1:settings": {},
		"user:10:profile": {},
	})
	base := []string{"--backend", "sqlite", "--dsn", path}

	out, err := run(t, append(base, "rm-prefix", "user:1:")...)
	require.NoError(t, err)
	assert.Equal(t, "invalidated 2 under user:1:\n", out)

	out, err = run(t, append(base, "ls")...)
	require.NoError(t, err)
	assert.Equal(t, "user:10:profile\n", out)
}

func TestEnvAndConfigFile(t *testing.T) {
	path := seed(t, "", map[string]swrcache.Policy{"k": {}})

	t.Setenv("SWRCACHE_BACKEND", "sqlite")
	t.Setenv("SWRCACHE_DSN", path)
	out, err := run(t, "ls")
	require.NoError(t, err)
	assert.Equal(t, "k\n", out)

	cfgFile := filepath.Join(t.TempDir(), "swrcache.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("backend: bogus\n"), 0o600))
	// env beats the config file
	_, err = run(t, "--config", cfgFile, "ls")
	require.NoError(t, err)
}

func TestConfigFileAndEnvFile(t *testing.T) {
	path := seed(t, "", map[string]swrcache.Policy{"k": {}})

	cfgFile := filepath.Join(t.TempDir(), "swrcache.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("backend: sqlite\ndsn: "+path+"\n"), 0o600))
	out, err := run(t, "--config", cfgFile, "ls")
	require.NoError(t, err)
	assert.Equal(t, "k\n", out)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(strings.Join([]string{
		"SWRCACHE_BACKEND=sqlite",
		"SWRCACHE_DSN=" + path,
	}, "\n")+"\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("SWRCACHE_BACKEND")
		_ = os.Unsetenv("SWRCACHE_DSN")
	})
	out, err = run(t, "--env-file", envFile, "ls")
	require.NoError(t, err)
	assert.Equal(t, "k\n", out)
}

func TestUnknownBackend(t *testing.T) {
	_, err := run(t, "--backend", "memcached", "ls")
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}

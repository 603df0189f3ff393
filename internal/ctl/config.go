package ctl

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	valkeylib "github.com/valkey-io/valkey-go"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/swrcache"
	zaplog "github.com/unkn0wn-root/swrcache/log/zap"
	pr "github.com/unkn0wn-root/swrcache/provider"
	"github.com/unkn0wn-root/swrcache/provider/redis"
	"github.com/unkn0wn-root/swrcache/provider/sqlite"
	"github.com/unkn0wn-root/swrcache/provider/valkey"
)

const envPrefix = "SWRCACHE"

var ErrUnknownBackend = errors.New("unknown backend")

// Config is the resolved connection settings: flags, then SWRCACHE_* env
// (optionally loaded from --env-file), then the --config file, then defaults.
type Config struct {
	Backend   string `mapstructure:"backend"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	DSN       string `mapstructure:"dsn"`
	Namespace string `mapstructure:"namespace"`
	Verbose   bool   `mapstructure:"verbose"`
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.PersistentFlags()
	f.String("backend", "redis", "backing store: redis | valkey | sqlite")
	f.String("addr", "localhost:6379", "redis/valkey address")
	f.String("password", "", "redis/valkey password")
	f.Int("db", 0, "redis/valkey database")
	f.String("dsn", "swrcache.db", "sqlite database path")
	f.String("namespace", "", "key namespace used by the application")
	f.Bool("verbose", false, "log cache internals to stderr")
	f.String("config", "", "config file (yaml, json or toml)")
	f.String("env-file", "", "dotenv file loaded before reading SWRCACHE_* variables")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(f)
}

func loadConfig(v *viper.Viper) (Config, error) {
	if file := v.GetString("env-file"); file != "" {
		if err := godotenv.Load(file); err != nil {
			return Config{}, errors.Wrapf(err, "load env file %q", file)
		}
	}
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %q", file)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return cfg, nil
}

func openProvider(ctx context.Context, cfg Config) (pr.Provider, error) {
	switch cfg.Backend {
	case "redis":
		return redis.New(redis.Config{
			Client: goredis.NewClient(&goredis.Options{
				Addr:     cfg.Addr,
				Password: cfg.Password,
				DB:       cfg.DB,
			}),
			CloseClient: true,
		})
	case "valkey":
		client, err := valkeylib.NewClient(valkeylib.ClientOption{
			InitAddress: []string{cfg.Addr},
			Password:    cfg.Password,
			SelectDB:    cfg.DB,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "connect valkey %s", cfg.Addr)
		}
		return valkey.New(valkey.Config{Client: client, CloseClient: true})
	case "sqlite":
		return sqlite.Open(ctx, cfg.DSN, sqlite.WithExpiryCheck(0))
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", cfg.Backend)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func openCache(ctx context.Context, cfg Config) (*swrcache.Cache, func(), error) {
	zl, err := newLogger(cfg.Verbose)
	if err != nil {
		return nil, nil, errors.Wrap(err, "build logger")
	}
	p, err := openProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := swrcache.New(swrcache.Options{
		Provider:  p,
		Logger:    zaplog.ZapLogger{L: zl},
		Namespace: cfg.Namespace,
	})
	if err != nil {
		_ = p.Close(ctx)
		return nil, nil, err
	}
	return c, func() {
		_ = c.Close(context.WithoutCancel(ctx))
		_ = zl.Sync()
	}, nil
}

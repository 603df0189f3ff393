// Package ctl implements swrcachectl, an operator tool for inspecting and
// invalidating entries written by swrcache in a backing store.
package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"

	"github.com/unkn0wn-root/swrcache"
	"github.com/unkn0wn-root/swrcache/schema"
)

// rawEntries reads any JSON entry without knowing its Go type.
var rawEntries = schema.New[json.RawMessage]()

// NewRootCmd builds the command tree. now is the clock used for ages.
func NewRootCmd(now func() time.Time) *cobra.Command {
	if now == nil {
		now = time.Now
	}
	v := viper.New()
	root := &cobra.Command{
		Use:           "swrcachectl",
		Short:         "Inspect and invalidate swrcache entries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	bindFlags(root, v)

	// withCache resolves config and opens the cache for one command run.
	withCache := func(fn func(ctx context.Context, cmd *cobra.Command, c *swrcache.Cache) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c, closeFn, err := openCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(ctx, cmd, c)
		}
	}

	root.AddCommand(
		getCmd(withCache, now),
		lsCmd(withCache),
		rmCmd(withCache),
		rmPrefixCmd(withCache),
	)
	return root
}

type runner = func(fn func(ctx context.Context, cmd *cobra.Command, c *swrcache.Cache) error) func(*cobra.Command, []string) error

func getCmd(withCache runner, now func() time.Time) *cobra.Command {
	var version, ttlStr, swrStr string
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Show a stored entry, when it was computed and its freshness",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&version, "version", "", "literal version segment")
	cmd.Flags().StringVar(&ttlStr, "ttl", "10m", "freshness window used to classify the entry (e.g. 90m, 1d)")
	cmd.Flags().StringVar(&swrStr, "swr", "0s", "stale-while-revalidate window")

	cmd.RunE = func(c *cobra.Command, args []string) error {
		ttl, err := str2duration.ParseDuration(ttlStr)
		if err != nil {
			return errors.Wrapf(err, "--ttl %q", ttlStr)
		}
		swr, err := str2duration.ParseDuration(swrStr)
		if err != nil {
			return errors.Wrapf(err, "--swr %q", swrStr)
		}
		p := swrcache.Policy{TTL: ttl, SWR: swr, Version: version}
		return withCache(func(ctx context.Context, cmd *cobra.Command, cache *swrcache.Cache) error {
			e, ok, err := swrcache.GetEntry(ctx, cache, args[0], rawEntries, p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "%s: miss\n", args[0])
				return nil
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, e.Value, "", "  "); err != nil {
				pretty.Reset()
				pretty.Write(e.Value)
			}
			age := now().Sub(e.ComputedAt)
			fmt.Fprintf(out, "key:         %s\n", args[0])
			fmt.Fprintf(out, "computed at: %s (%s)\n",
				e.ComputedAt.UTC().Format(time.RFC3339), humanize.RelTime(e.ComputedAt, now(), "ago", "from now"))
			fmt.Fprintf(out, "age:         %s\n", str2duration.String(age.Truncate(time.Second)))
			fmt.Fprintf(out, "state:       %s\n", swrcache.Classify(age, ttl, swr))
			fmt.Fprintf(out, "value:\n%s\n", pretty.String())
			return nil
		})(c, args)
	}
	return cmd
}

func lsCmd(withCache runner) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [PREFIX]",
		Short: "List storage keys under a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return withCache(func(ctx context.Context, cmd *cobra.Command, cache *swrcache.Cache) error {
				ks, err := cache.Keys(ctx, prefix)
				if err != nil {
					return err
				}
				for _, k := range ks {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})(c, args)
		},
	}
}

func rmCmd(withCache runner) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "rm KEY",
		Short: "Invalidate one key",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&version, "version", "", "literal version segment")
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withCache(func(ctx context.Context, cmd *cobra.Command, cache *swrcache.Cache) error {
			if err := swrcache.Invalidate[json.RawMessage](ctx, cache, args[0], nil, swrcache.Policy{Version: version}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", args[0])
			return nil
		})(c, args)
	}
	return cmd
}

func rmPrefixCmd(withCache runner) *cobra.Command {
	return &cobra.Command{
		Use:   "rm-prefix PREFIX",
		Short: "Invalidate every key under a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if args[0] == "" {
				return errors.New("refusing to invalidate an empty prefix")
			}
			return withCache(func(ctx context.Context, cmd *cobra.Command, cache *swrcache.Cache) error {
				ks, err := cache.Keys(ctx, args[0])
				if err != nil {
					return err
				}
				if err := cache.InvalidatePrefix(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s under %s\n",
					humanize.Comma(int64(len(ks))), args[0])
				return nil
			})(c, args)
		},
	}
}

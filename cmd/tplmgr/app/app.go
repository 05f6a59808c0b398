// Package app implements the tplmgr command line interface.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/skosovsky/tplmgr"
	"github.com/skosovsky/tplmgr/fetcher"
	"github.com/skosovsky/tplmgr/manifest"
	"github.com/skosovsky/tplmgr/sourcecache"
)

// Command returns the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tplmgr",
		Short:         "Fetch, compile and render HTML template fragments from a registry file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("manifest", "templates.yaml", "Path to the YAML template registry")
	cmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")

	cmd.AddCommand(
		renderCommand(),
		listCommand(),
		checkCommand(),
	)
	return cmd
}

// sourceFlags registers the flags that select where template sources come from.
func sourceFlags(fs *pflag.FlagSet) {
	fs.String("dir", "", "Read template locations from this directory instead of over HTTP")
	fs.String("token", "", "Bearer token sent with HTTP requests")
	fs.String("redis-url", "", "Cache fetched sources in Redis (e.g. redis://localhost:6379/0)")
	fs.Duration("cache-ttl", time.Hour, "TTL of sources cached in Redis")
	fs.Duration("timeout", 30*time.Second, "Give up after this long")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get `--log-level`: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return nil, fmt.Errorf("invalid `--log-level` %q: %w", raw, err)
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}

func loadManifest(cmd *cobra.Command) (*manifest.Manifest, error) {
	path, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return nil, fmt.Errorf("failed to get `--manifest`: %w", err)
	}
	return manifest.ParseFile(path)
}

// buildFetcher returns an FS fetcher when --dir is set, an HTTP fetcher otherwise,
// wrapped in a Redis source cache when --redis-url is set.
func buildFetcher(ctx context.Context, cmd *cobra.Command, m *manifest.Manifest, logger *slog.Logger) (fetcher.Fetcher, func(), error) {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	token, _ := flags.GetString("token")
	redisURL, _ := flags.GetString("redis-url")
	ttl, _ := flags.GetDuration("cache-ttl")

	var f fetcher.Fetcher
	if dir != "" {
		f = fetcher.NewFSFetcher(os.DirFS(dir), "")
	} else {
		h, err := fetcher.NewHTTPFetcher(m.BaseURL, fetcher.WithAuthToken(token))
		if err != nil {
			return nil, nil, err
		}
		f = h
	}
	if redisURL == "" {
		return f, func() {}, nil
	}
	store, err := sourcecache.NewRedisFromURL(ctx, sourcecache.RedisConfig{URL: redisURL, TTL: ttl})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close redis client", "err", err)
		}
	}
	return sourcecache.New(f, store, sourcecache.WithLogger(logger)), cleanup, nil
}

// session bundles what every fetching subcommand needs.
type session struct {
	manager *tplmgr.Manager
	ctx     context.Context
	close   func()
}

func openSession(cmd *cobra.Command) (*session, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	m, err := loadManifest(cmd)
	if err != nil {
		return nil, err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, fmt.Errorf("failed to get `--timeout`: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	f, cleanup, err := buildFetcher(ctx, cmd, m, logger)
	if err != nil {
		cancel()
		return nil, err
	}
	opts := append(m.Options(),
		tplmgr.WithLogger(logger),
		tplmgr.WithOnLoaded(func() { logger.Debug("all templates loaded") }),
	)
	mgr, err := tplmgr.New(m.Templates, f, opts...)
	if err != nil {
		cleanup()
		cancel()
		return nil, err
	}
	return &session{
		manager: mgr,
		ctx:     ctx,
		close: func() {
			_ = mgr.Close()
			cleanup()
			cancel()
		},
	}, nil
}

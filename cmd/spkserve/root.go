package main

import (
	"fmt"
	"log/slog"
	nethttp "net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meigma/spk"
	"github.com/meigma/spk/cache"
	"github.com/meigma/spk/cache/disk"
	spkhttp "github.com/meigma/spk/http"
	"github.com/meigma/spk/internal/config"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	envFiles   []string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "spkserve",
		Short:        "Serve files from inside SPK packages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newServeCmd(a), newCatCmd(a), newInspectCmd(a))
	return cmd
}

// setup loads configuration in order: defaults, config file, environment
// (including dotenv files), then flags.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(a.logLevel)); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
	return nil
}

// fileRoot returns the directory served for file:// URLs, or "" when the
// upstream is not a local tree.
func (a *app) fileRoot() string {
	if strings.HasPrefix(a.cfg.Upstream, "file:") {
		return "/"
	}
	return ""
}

func (a *app) httpClient(transport nethttp.RoundTripper) *nethttp.Client {
	return &nethttp.Client{Transport: transport}
}

func (a *app) fetcher(client *nethttp.Client) *spkhttp.Fetcher {
	opts := []spkhttp.Option{
		spkhttp.WithClient(client),
		spkhttp.WithMaxBytes(a.cfg.FetchMaxBytes),
		spkhttp.WithLogger(a.logger),
	}
	for k, v := range a.cfg.Headers {
		opts = append(opts, spkhttp.WithHeader(k, v))
	}
	return spkhttp.NewFetcher(opts...)
}

func (a *app) parseOptions() []spk.Option {
	return []spk.Option{spk.WithMaxEntries(a.cfg.MaxEntries)}
}

// newCache builds the archive cache, backed by a disk store when a cache
// directory is configured. The returned close func releases the store.
func (a *app) newCache(f cache.Fetcher) (*cache.Cache, func() error, error) {
	opts := []cache.Option{
		cache.WithParseOptions(a.parseOptions()...),
		cache.WithLogger(a.logger),
	}
	closeFn := func() error { return nil }

	if a.cfg.CacheDir != "" {
		store, err := disk.New(a.cfg.CacheDir, disk.WithMaxBytes(a.cfg.CacheMaxBytes))
		if err != nil {
			return nil, nil, fmt.Errorf("open disk cache: %w", err)
		}
		a.logger.Debug("disk cache enabled",
			"dir", a.cfg.CacheDir,
			"bytes", store.SizeBytes(),
			"max_bytes", store.MaxBytes(),
		)
		opts = append(opts, cache.WithStore(store))
		closeFn = store.Close
	}
	return cache.New(f, opts...), closeFn, nil
}

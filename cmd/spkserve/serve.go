package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/meigma/spk/contenttype"
	spkhttp "github.com/meigma/spk/http"
	"github.com/meigma/spk/router"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	listen    string
	upstream  string
	cacheDir  string
	extension string
	preload   []string
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Reverse-proxy an upstream, answering package paths from the packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, a)
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return a.serve(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.listen, "listen", "", "address to listen on")
	flags.StringVar(&f.upstream, "upstream", "", "upstream base URL (http, https or file)")
	flags.StringVar(&f.cacheDir, "cache-dir", "", "directory for the on-disk package cache")
	flags.StringVar(&f.extension, "extension", "", "package extension marking an archive boundary")
	flags.StringSliceVar(&f.preload, "preload", nil, "package URLs to resolve at startup")
	return cmd
}

// apply overrides configuration with flags that were set explicitly.
func (f *serveFlags) apply(cmd *cobra.Command, a *app) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		a.cfg.Listen = f.listen
	}
	if flags.Changed("upstream") {
		a.cfg.Upstream = f.upstream
	}
	if flags.Changed("cache-dir") {
		a.cfg.CacheDir = f.cacheDir
	}
	if flags.Changed("extension") {
		a.cfg.Extension = f.extension
	}
	if flags.Changed("preload") {
		a.cfg.Preload = f.preload
	}
}

// handler builds the proxy handler. The returned close func releases the
// package cache.
func (a *app) handler(ctx context.Context) (nethttp.Handler, func() error, error) {
	target, err := url.Parse(a.cfg.Upstream)
	if err != nil {
		return nil, nil, fmt.Errorf("parse upstream: %w", err)
	}

	transport := spkhttp.NewTransport(a.fileRoot())
	c, closeCache, err := a.newCache(a.fetcher(a.httpClient(transport)))
	if err != nil {
		return nil, nil, err
	}

	if len(a.cfg.Preload) > 0 {
		if err := c.Prefetch(ctx, a.cfg.Preload...); err != nil {
			a.logger.Warn("preload failed", "error", err)
		}
	}

	rt := router.New(c,
		router.WithNext(transport),
		router.WithExtension(a.cfg.Extension),
		router.WithContentTypes(contenttype.New(a.cfg.ContentTypes)),
		router.WithLogger(a.logger),
	)

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: rt,
		ErrorLog:  slog.NewLogLogger(a.logger.Handler(), slog.LevelError),
		ErrorHandler: func(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
			a.logger.Warn("upstream request failed", "url", r.URL.String(), "error", err)
			w.WriteHeader(nethttp.StatusBadGateway)
		},
	}
	return proxy, closeCache, nil
}

func (a *app) serve(ctx context.Context) error {
	h, closeCache, err := a.handler(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCache(); err != nil {
			a.logger.Warn("close cache", "error", err)
		}
	}()

	srv := &nethttp.Server{
		Addr:              a.cfg.Listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.Listen, "upstream", a.cfg.Upstream)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

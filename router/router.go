package router

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/meigma/spk"
	"github.com/meigma/spk/contenttype"
)

// Resolver returns the parsed package at a location. *cache.Cache implements it.
type Resolver interface {
	Resolve(ctx context.Context, location string) (*spk.Archive, error)
}

// Router is an http.RoundTripper that serves files from inside packages.
// A Router is safe for concurrent use.
type Router struct {
	resolver Resolver
	next     nethttp.RoundTripper
	types    *contenttype.Resolver
	ext      string
	logger   *slog.Logger
}

var _ nethttp.RoundTripper = (*Router)(nil)

// New creates a Router that resolves packages with resolver.
func New(resolver Resolver, opts ...Option) *Router {
	r := &Router{
		resolver: resolver,
		next:     nethttp.DefaultTransport,
		ext:      spk.Extension,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.next == nil {
		r.next = nethttp.DefaultTransport
	}
	if r.ext == "" {
		r.ext = spk.Extension
	} else if !strings.HasPrefix(r.ext, ".") {
		r.ext = "." + r.ext
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// RoundTrip implements http.RoundTripper.
//
// Requests inside a package are answered locally and never return an error.
// All other requests are forwarded unmodified to the next RoundTripper and
// its response and error are returned as-is.
func (r *Router) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	resp, ok := r.Handle(req)
	if !ok {
		return r.next.RoundTrip(req)
	}
	if req.Body != nil {
		_ = req.Body.Close()
	}
	return resp, nil
}

// Handle answers req if it addresses a file inside a package.
//
// It returns false, and a nil response, when req should pass through to the
// network. Otherwise the response is one of:
//   - 200 with the entry bytes and a content type derived from its name
//   - 404 "404 Not Found" when the package has no such entry
//   - 400 "400 Bad Request" when the package cannot be fetched or parsed
func (r *Router) Handle(req *nethttp.Request) (*nethttp.Response, bool) {
	source, inner, ok := SplitLocation(req.URL, r.ext)
	if !ok {
		return nil, false
	}
	return r.serve(req, source, inner), true
}

func (r *Router) serve(req *nethttp.Request, source, inner string) (resp *nethttp.Response) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic serving package entry", "source", source, "path", inner, "panic", p)
			resp = textResponse(req, nethttp.StatusBadRequest)
		}
	}()

	archive, err := r.resolver.Resolve(req.Context(), source)
	if err != nil {
		r.logger.Warn("package unavailable", "source", source, "path", inner, "error", err)
		return textResponse(req, nethttp.StatusBadRequest)
	}

	data, ok := archive.EntryData(inner)
	if !ok {
		r.logger.Debug("package entry not found", "source", source, "path", inner)
		return textResponse(req, nethttp.StatusNotFound)
	}

	r.logger.Debug("serving package entry", "source", source, "path", inner, "bytes", len(data))
	return newResponse(req, nethttp.StatusOK, r.types.Resolve(inner), data)
}

// SplitLocation splits u at the first occurrence of ext followed by "/" in
// its path.
//
// source is u with the path cut after ext and with no query or fragment;
// inner is the remainder of the path after the separator. Only the path is
// searched, so a host name ending in ext never matches.
func SplitLocation(u *url.URL, ext string) (source, inner string, ok bool) {
	if u == nil || ext == "" {
		return "", "", false
	}
	i := strings.Index(u.Path, ext+"/")
	if i < 0 {
		return "", "", false
	}
	end := i + len(ext)

	src := *u
	src.Path = u.Path[:end]
	src.RawPath = ""
	src.RawQuery = ""
	src.ForceQuery = false
	src.Fragment = ""
	src.RawFragment = ""
	return src.String(), u.Path[end+1:], true
}

package router

import (
	"log/slog"
	nethttp "net/http"

	"github.com/meigma/spk/contenttype"
)

// Option configures a Router.
type Option func(*Router)

// WithNext sets the RoundTripper used for requests outside any package.
// Defaults to http.DefaultTransport.
func WithNext(next nethttp.RoundTripper) Option {
	return func(r *Router) {
		r.next = next
	}
}

// WithExtension sets the package extension that marks an archive boundary.
// The leading dot is optional. Defaults to ".spk".
func WithExtension(ext string) Option {
	return func(r *Router) {
		r.ext = ext
	}
}

// WithContentTypes sets the resolver used for the Content-Type of served entries.
func WithContentTypes(types *contenttype.Resolver) Option {
	return func(r *Router) {
		r.types = types
	}
}

// WithLogger sets the logger for routing diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

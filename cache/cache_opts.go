package cache

import (
	"log/slog"

	"github.com/meigma/spk"
)

// Option configures a Cache.
type Option func(*Cache)

// WithStore keeps raw package bytes in s, consulted before fetching.
func WithStore(s Store) Option {
	return func(c *Cache) {
		c.store = s
	}
}

// WithParseOptions sets the options passed to spk.Parse.
func WithParseOptions(opts ...spk.Option) Option {
	return func(c *Cache) {
		c.parseOpts = opts
	}
}

// WithLogger sets the logger for cache diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

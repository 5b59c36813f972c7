package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/spk"
)

// Fetcher retrieves the raw bytes of the package at location.
//
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, location string) ([]byte, error)

// Fetch calls f(ctx, location).
func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// Store persists raw package bytes by location.
//
// Store errors are never fatal to a resolution; the cache logs them and
// falls back to fetching. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored bytes for location, or false if none are stored.
	Get(location string) ([]byte, bool)

	// Put stores data for location.
	Put(location string, data []byte) error

	// Delete removes stored bytes for location. Missing entries are a no-op.
	Delete(location string) error
}

// Cache resolves locations to parsed archives with decode-once semantics.
// A Cache is safe for concurrent use.
type Cache struct {
	fetcher   Fetcher
	store     Store
	parseOpts []spk.Option
	logger    *slog.Logger

	group singleflight.Group // zero value is valid

	mu       sync.RWMutex
	archives map[string]*spk.Archive
}

// New creates a Cache that fetches packages with f.
func New(f Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:  f,
		archives: make(map[string]*spk.Archive),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Resolve returns the parsed archive for location.
//
// The first call for a location fetches and parses it; calls made while that
// work is in flight wait for and share its outcome. The shared work is not
// tied to any single caller's cancellation: a caller whose ctx ends stops
// waiting and gets ctx.Err(), while the resolution continues for the others.
//
// Fetch failures are returned as *spk.FetchError and parse failures as
// *spk.FormatError.
func (c *Cache) Resolve(ctx context.Context, location string) (*spk.Archive, error) {
	if a, ok := c.Lookup(location); ok {
		c.logger.Debug("archive cache hit", "location", location)
		return a, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(location, func() (any, error) {
		return c.load(shared, location)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*spk.Archive), nil //nolint:errcheck // type assertion always succeeds when err is nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ErrPanicked is returned to every caller waiting on a resolution that panicked.
var ErrPanicked = errors.New("spk: archive resolution panicked")

// load runs once per in-flight location.
//
// A panic is recovered and reported as an error. singleflight would otherwise
// re-panic on a goroutine no caller can recover.
func (c *Cache) load(ctx context.Context, location string) (a *spk.Archive, err error) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("archive resolution panicked", "location", location, "panic", p)
			a, err = nil, fmt.Errorf("%w: %s: %v", ErrPanicked, location, p)
		}
	}()

	// A caller may have missed the map just before a previous load stored its
	// result and released the key.
	if cached, ok := c.Lookup(location); ok {
		return cached, nil
	}

	a = c.loadStored(location)
	if a == nil {
		c.logger.Debug("archive cache miss", "location", location)
		if a, err = c.fetchAndParse(ctx, location); err != nil {
			c.logger.Warn("archive resolution failed", "location", location, "error", err)
			return nil, err
		}
	}

	c.mu.Lock()
	c.archives[location] = a
	c.mu.Unlock()

	c.logger.Info("archive resolved",
		"location", location,
		"entries", a.Len(),
		"bytes", a.Size(),
	)
	return a, nil
}

// loadStored returns an archive from the persistent store, or nil when the
// store has no usable copy.
func (c *Cache) loadStored(location string) *spk.Archive {
	if c.store == nil {
		return nil
	}
	data, ok := c.store.Get(location)
	if !ok {
		return nil
	}
	a, err := spk.Parse(data, c.parseOpts...)
	if err != nil {
		c.logger.Warn("discarding unparsable stored archive", "location", location, "error", err)
		_ = c.store.Delete(location) //nolint:errcheck // best-effort cleanup of a corrupt copy
		return nil
	}
	c.logger.Debug("archive store hit", "location", location)
	return a
}

func (c *Cache) fetchAndParse(ctx context.Context, location string) (*spk.Archive, error) {
	data, err := c.fetcher.Fetch(ctx, location)
	if err != nil {
		var fe *spk.FetchError
		if !errors.As(err, &fe) {
			err = &spk.FetchError{Location: location, Err: err}
		}
		return nil, err
	}

	a, err := spk.Parse(data, c.parseOpts...)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Put(location, data); err != nil {
			c.logger.Warn("archive store put failed", "location", location, "error", err)
		}
	}
	return a, nil
}

// Lookup returns the archive for location if it has already been resolved.
// It never fetches.
func (c *Cache) Lookup(location string) (*spk.Archive, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.archives[location]
	return a, ok
}

// Len returns the number of resolved archives.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.archives)
}

// Prefetch resolves every location concurrently and returns the first error.
//
// Locations that resolve successfully stay cached even when another fails.
func (c *Cache) Prefetch(ctx context.Context, locations ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, location := range locations {
		g.Go(func() error {
			_, err := c.Resolve(gctx, location)
			return err
		})
	}
	return g.Wait()
}

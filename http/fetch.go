// Package http fetches SPK packages over net/http.
package http //nolint:revive // intentional naming for domain clarity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"

	"github.com/meigma/spk/internal/spktype"
)

// drainLimit caps how much of an unread body is discarded before closing.
const drainLimit = 64 << 10

// Fetcher retrieves whole archive buffers with HTTP GET requests.
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	client   *nethttp.Client
	headers  nethttp.Header
	maxBytes int64
	logger   *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(f *Fetcher) {
		if headers == nil {
			return
		}
		f.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		if f.headers == nil {
			f.headers = make(nethttp.Header)
		}
		f.headers.Set(key, value)
	}
}

// WithMaxBytes limits the size of a fetched archive. Use 0 to disable the limit.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher. Without WithClient it uses http.DefaultClient.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{client: nethttp.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = nethttp.DefaultClient
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	return f
}

// Fetch downloads the archive at location.
//
// Transport failures, non-200 responses, and oversized bodies are returned
// as a *spk.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	data, err := f.fetch(ctx, location)
	if err != nil {
		return nil, &spktype.FetchError{Location: location, Err: err}
	}
	return data, nil
}

func (f *Fetcher) fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, location, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range f.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	f.logger.Debug("fetching archive", "location", location)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.CopyN(io.Discard, resp.Body, drainLimit) //nolint:errcheck // best-effort drain for connection reuse
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, fmt.Errorf("%w: %s", spktype.ErrUnexpectedStatus, resp.Status)
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", spktype.ErrTooLarge, resp.ContentLength, f.maxBytes)
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds limit of %d bytes", spktype.ErrTooLarge, f.maxBytes)
	}

	f.logger.Debug("fetched archive", "location", location, "bytes", len(data))
	return data, nil
}

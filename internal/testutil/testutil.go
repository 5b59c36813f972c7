// Package testutil provides archive builders and fakes shared by the package tests.
package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
)

// MockFetcher serves archive bytes from memory and records every fetch.
// It is safe for concurrent use.
type MockFetcher struct {
	mu       sync.Mutex
	archives map[string][]byte
	failures map[string][]error
	calls    map[string]int
	gate     chan struct{}
	started  chan string
}

// NewMockFetcher constructs an empty fetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		archives: make(map[string][]byte),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
		started:  make(chan string, 64),
	}
}

// Set registers the bytes returned for location.
func (f *MockFetcher) Set(location string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archives[location] = data
}

// FailNext queues err to be returned by the next fetch of location.
func (f *MockFetcher) FailNext(location string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[location] = append(f.failures[location], err)
}

// Block makes every subsequent Fetch wait until the returned release is called.
func (f *MockFetcher) Block() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Started receives the location of every fetch as it begins.
func (f *MockFetcher) Started() <-chan string {
	return f.started
}

// Calls returns how many times location has been fetched.
func (f *MockFetcher) Calls(location string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[location]
}

// Fetch implements the cache fetcher contract.
func (f *MockFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	f.mu.Lock()
	f.calls[location]++
	gate := f.gate
	f.mu.Unlock()

	select {
	case f.started <- location:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if queued := f.failures[location]; len(queued) > 0 {
		f.failures[location] = queued[1:]
		return nil, queued[0]
	}
	data, ok := f.archives[location]
	if !ok {
		return nil, fmt.Errorf("mock fetch %s: %w", location, fs.ErrNotExist)
	}
	return data, nil
}

//go:build integration

// Package integration provides end-to-end tests for package routing.
//
// These tests require Docker and serve fixture packages from a real nginx
// origin started with testcontainers.
// Run with: go test -tags=integration ./integration/...
package integration

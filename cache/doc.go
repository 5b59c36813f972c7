// Package cache resolves package locations to parsed archives, fetching and
// parsing each location at most once.
//
// Concurrent resolutions of the same location share a single fetch. A
// successful result is kept for the life of the Cache; a failed one is
// reported to every waiting caller and then forgotten, so the next call
// retries instead of repeating the failure.
//
// An optional Store (see the disk subpackage) keeps raw package bytes across
// process restarts.
package cache

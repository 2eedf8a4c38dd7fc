// Package cache provides the key/value stores that hold provider responses.
//
// # Overview
//
// Every backend implements [Cache]: opaque byte values with a per-entry
// time-to-live. Entries are written with expiresAt = now + ttl, and a read at
// or after expiresAt behaves as a miss and evicts the stale entry. There is
// no background sweeper; cardinality is bounded by the number of distinct
// queries per provider.
//
// Backends:
//
//   - [MemoryCache]: in-process map, injectable clock. Default for the API server.
//   - [FileCache]: one JSON file per key under ~/.cache/dealprep. Default for the CLI.
//   - [NullCache]: never stores anything (--no-cache).
//   - [RedisCache], [MongoCache], [SQLiteCache]: shared stores for multiple
//     server processes. They are storage adapters only; instances do not
//     coordinate with each other.
//
// # Keys
//
// [Keyer] turns (provider, query) into a cache key. Queries are used
// verbatim: "Acme" and "acme" are different entries.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values with a time-to-live.
//
// Implementations must be safe for concurrent use and must make overwrites
// atomic: a concurrent Get observes either the old value or the new one,
// never a partial write.
type Cache interface {
	// Get returns the value for key. The bool is false on a miss, including
	// when the entry exists but has expired; expired entries are removed.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key, replacing any previous entry. A ttl of zero
	// or less stores the entry without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}

// expiry returns the absolute expiry for a write at now, or the zero time
// when ttl does not expire.
func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// expired reports whether an entry with the given expiry is stale at now.
// The zero time never expires.
func expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}

// Package kvstore provides the TTL key-value store backing sessions and
// rate limiting. A durable Redis backend and an in-process map share the
// same contract; the Failover wrapper switches between them so callers
// never observe a transport error, at worst a miss.
package kvstore

import (
	"context"
	"time"
)

// Store is the TTL key-value contract. Safe for concurrent use.
type Store interface {
	// Get returns the value and true when the key exists and has not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

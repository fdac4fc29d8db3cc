package cache

import (
	"context"
	"time"
)

type Entry struct {
	// Either the value as inserted, or a json.RawMessage when read back from a
	// persistent store
	Value     any
	ExpiresAt time.Time
}

// Cache is an expiring key/value store.
//
// Get must not return an entry whose ExpiresAt is at or before the current time.
// Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key Fingerprint) (Entry, bool)
	// GetMany omits missing and expired keys from the result
	GetMany(ctx context.Context, keys []Fingerprint) map[Fingerprint]Entry
	Insert(ctx context.Context, key Fingerprint, value any, expiresAt time.Time)
}

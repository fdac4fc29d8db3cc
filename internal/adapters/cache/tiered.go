package cache

import (
	"context"
	"time"
)

type tiered struct {
	memory     Cache
	persistent Cache
}

// NewTiered puts a fast cache in front of a slow one. Entries found only in
// the slow cache are copied into the fast one.
func NewTiered(memory Cache, persistent Cache) Cache {
	return &tiered{
		memory:     memory,
		persistent: persistent,
	}
}

func (c *tiered) Get(ctx context.Context, key Fingerprint) (Entry, bool) {
	if entry, ok := c.memory.Get(ctx, key); ok {
		return entry, true
	}

	entry, ok := c.persistent.Get(ctx, key)
	if !ok {
		return Entry{}, false
	}

	c.memory.Insert(ctx, key, entry.Value, entry.ExpiresAt)
	return entry, true
}

func (c *tiered) GetMany(ctx context.Context, keys []Fingerprint) map[Fingerprint]Entry {
	entries := c.memory.GetMany(ctx, keys)
	if len(entries) == len(keys) {
		return entries
	}

	missing := make([]Fingerprint, 0, len(keys)-len(entries))
	for _, key := range keys {
		if _, ok := entries[key]; !ok {
			missing = append(missing, key)
		}
	}

	for key, entry := range c.persistent.GetMany(ctx, missing) {
		c.memory.Insert(ctx, key, entry.Value, entry.ExpiresAt)
		entries[key] = entry
	}
	return entries
}

func (c *tiered) Insert(ctx context.Context, key Fingerprint, value any, expiresAt time.Time) {
	c.memory.Insert(ctx, key, value, expiresAt)
	c.persistent.Insert(ctx, key, value, expiresAt)
}

package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type ttlCache struct {
	cache   *ttlcache.Cache[Fingerprint, Entry]
	nowFunc func() time.Time
}

func (c *ttlCache) Get(ctx context.Context, key Fingerprint) (Entry, bool) {
	item := c.cache.Get(key)
	if item == nil {
		return Entry{}, false
	}

	entry := item.Value()
	// ttlcache only cleans up in the background, so check the expiry ourselves
	if !c.nowFunc().Before(entry.ExpiresAt) {
		return Entry{}, false
	}

	return entry, true
}

func (c *ttlCache) GetMany(ctx context.Context, keys []Fingerprint) map[Fingerprint]Entry {
	entries := make(map[Fingerprint]Entry, len(keys))
	for _, key := range keys {
		if entry, ok := c.Get(ctx, key); ok {
			entries[key] = entry
		}
	}
	return entries
}

func (c *ttlCache) Insert(ctx context.Context, key Fingerprint, value any, expiresAt time.Time) {
	ttl := expiresAt.Sub(c.nowFunc())
	if ttl <= 0 {
		return
	}

	c.cache.Set(key, Entry{Value: value, ExpiresAt: expiresAt}, ttl)
}

// NewTTLCache returns an in-memory cache and a function stopping its cleanup goroutine
func NewTTLCache(nowFunc func() time.Time) (Cache, func()) {
	cache := ttlcache.New[Fingerprint, Entry](
		ttlcache.WithDisableTouchOnHit[Fingerprint, Entry](),
	)
	go cache.Start()

	return &ttlCache{
		cache:   cache,
		nowFunc: nowFunc,
	}, cache.Stop
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/Amund211/gw2lib/internal/adapters/cache"
	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/Amund211/gw2lib/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func resourceType[T any]() string {
	t := reflect.TypeFor[T]()
	return t.PkgPath() + "." + t.Name()
}

func idString[I comparable](id I) string {
	return fmt.Sprint(id)
}

func endpointOf[T domain.Endpoint]() domain.EndpointInfo {
	var zero T
	return zero.Endpoint()
}

func (r Requester) locale(info domain.EndpointInfo) string {
	if info.Localized {
		return r.client.language.String()
	}
	return ""
}

func fingerprintFor[T domain.Endpoint](r Requester, shape cache.Shape, id string) cache.Fingerprint {
	return cache.NewFingerprint(resourceType[T](), shape, id, r.locale(endpointOf[T]()))
}

// castValue recovers a typed value from the cache or a broadcast
func castValue[V any](value any) (V, bool) {
	if typed, ok := value.(V); ok {
		return typed, true
	}

	var decoded V
	raw, ok := value.(json.RawMessage)
	if !ok {
		return decoded, false
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return decoded, false
	}
	return decoded, true
}

func (r Requester) recordCacheResult(ctx context.Context, info domain.EndpointInfo, result string) {
	r.client.metrics.cacheResultCount.Add(
		ctx,
		1,
		metric.WithAttributes(
			attribute.String("resource", info.Path),
			attribute.String("result", result),
		),
	)
}

// lookup reads key from the cache unless the requester is forced
func lookup[V any](ctx context.Context, r Requester, info domain.EndpointInfo, key cache.Fingerprint) (V, bool) {
	var zero V
	if r.forced {
		r.recordCacheResult(ctx, info, "forced")
		return zero, false
	}

	entry, ok := r.client.cache.Get(ctx, key)
	if !ok {
		r.recordCacheResult(ctx, info, "miss")
		return zero, false
	}

	value, ok := castValue[V](entry.Value)
	if !ok {
		logging.FromContext(ctx).WarnContext(
			ctx,
			"Discarding cache entry of unexpected type",
			slog.String("fingerprint", key.String()),
			slog.String("resource", info.Path),
		)
		r.recordCacheResult(ctx, info, "miss")
		return zero, false
	}

	r.recordCacheResult(ctx, info, "hit")
	return value, true
}

// lookupMany reads several keys in one cache round trip
func lookupMany[V any](ctx context.Context, r Requester, info domain.EndpointInfo, keys []cache.Fingerprint) map[cache.Fingerprint]V {
	found := make(map[cache.Fingerprint]V, len(keys))
	if r.forced || len(keys) == 0 {
		return found
	}

	entries := r.client.cache.GetMany(ctx, keys)
	for _, key := range keys {
		entry, ok := entries[key]
		if !ok {
			r.recordCacheResult(ctx, info, "miss")
			continue
		}
		value, ok := castValue[V](entry.Value)
		if !ok {
			logging.FromContext(ctx).WarnContext(
				ctx,
				"Discarding cache entry of unexpected type",
				slog.String("fingerprint", key.String()),
				slog.String("resource", info.Path),
			)
			r.recordCacheResult(ctx, info, "miss")
			continue
		}
		r.recordCacheResult(ctx, info, "hit")
		found[key] = value
	}
	return found
}

// resolve runs the cache-aside protocol for one fingerprint.
//
// At most one caller runs fetch for key at a time. Other callers wait for its
// result, and fall back to the cache when the fetch fails.
func resolve[V any](
	ctx context.Context,
	r Requester,
	info domain.EndpointInfo,
	key cache.Fingerprint,
	fetch func(ctx context.Context) (V, error),
) (V, error) {
	var zero V

	if value, ok := lookup[V](ctx, r, info, key); ok {
		return value, nil
	}

	for {
		owner, follower := r.client.inflight.Acquire(key)
		switch {
		case owner != nil:
			defer owner.Release()

			value, err := fetch(ctx)
			if err != nil {
				return zero, err
			}
			owner.Publish(value)
			return value, nil
		case follower != nil:
			r.client.metrics.inflightFollows.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", info.Path)))

			published, ok, err := follower.Wait(ctx)
			if err != nil {
				return zero, err
			}
			if ok {
				if value, ok := castValue[V](published); ok {
					return value, nil
				}
			}

			// The owner did not publish, it may still have populated the cache
			if value, ok := lookup[V](ctx, r, info, key); ok {
				return value, nil
			}
			return zero, fmt.Errorf("%w: %s", domain.ErrChannelClosed, info.Path)
		default:
			// Stale slot. The previous owner may have populated the cache.
			if value, ok := lookup[V](ctx, r, info, key); ok {
				return value, nil
			}
		}
	}
}

// fetchInto requests path, decodes the response into V and caches it under key
func fetchInto[V any](
	ctx context.Context,
	r Requester,
	info domain.EndpointInfo,
	path string,
	key cache.Fingerprint,
) (V, error) {
	resp, err := r.client.exec(ctx, info, path, "")
	if err != nil {
		var zero V
		return zero, err
	}

	value, err := decode[V](ctx, resp)
	if err != nil {
		return value, err
	}

	r.client.cache.Insert(ctx, key, value, r.expiresAt(resp.header))

	return value, nil
}

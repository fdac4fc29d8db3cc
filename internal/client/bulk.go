package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Amund211/gw2lib/internal/adapters/cache"
	"github.com/Amund211/gw2lib/internal/constants"
	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/Amund211/gw2lib/internal/inflight"
	"github.com/Amund211/gw2lib/internal/logging"
	"github.com/Amund211/gw2lib/internal/reporting"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type followedID[I comparable] struct {
	id           I
	subscription *inflight.Subscription
}

// chunkIDs splits ids into groups the API accepts in one request
func chunkIDs[I comparable](ids []I) [][]I {
	return slices.Collect(slices.Chunk(ids, constants.MAX_IDS_PER_REQUEST))
}

// joinIDs renders ids as the value of the ids query parameter
func joinIDs[I comparable](ids []I) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = url.QueryEscape(idString(id))
	}
	return strings.Join(parts, ",")
}

func uniqueIDs[I comparable](ids []I) []I {
	seen := make(map[I]struct{}, len(ids))
	unique := make([]I, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// Many fetches several resources by id.
//
// Cached ids are served from the cache, ids already being fetched by another
// caller are awaited, and the rest are requested in chunks of 200 ids.
// The order of the result is unspecified. Ids the API does not know are
// missing from the result, and duplicate ids are only returned once.
func Many[T domain.IDEndpoint[I], I comparable](ctx context.Context, r Requester, ids []I) ([]T, error) {
	info := endpointOf[T]()

	ctx, span := r.client.tracer.Start(ctx, "Client.Many", trace.WithAttributes(
		attribute.String("resource", info.Path),
		attribute.Int("id_count", len(ids)),
	))
	defer span.End()

	keyFor := func(id I) cache.Fingerprint {
		return fingerprintFor[T](r, cache.ShapeItem, idString(id))
	}

	ids = uniqueIDs(ids)
	result := make([]T, 0, len(ids))

	remaining := ids
	if !r.forced {
		keys := make([]cache.Fingerprint, len(ids))
		for i, id := range ids {
			keys[i] = keyFor(id)
		}
		cached := lookupMany[T](ctx, r, info, keys)

		remaining = make([]I, 0, len(ids))
		for i, id := range ids {
			if value, ok := cached[keys[i]]; ok {
				result = append(result, value)
				continue
			}
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		return result, nil
	}

	owners := make(map[I]*inflight.Ownership, len(remaining))
	owned := make([]I, 0, len(remaining))
	var followed []followedID[I]
	for _, id := range remaining {
		key := keyFor(id)
		for {
			owner, follower := r.client.inflight.Acquire(key)
			if owner != nil {
				owners[id] = owner
				owned = append(owned, id)
				break
			}
			if follower != nil {
				followed = append(followed, followedID[I]{id: id, subscription: follower})
				break
			}
			if value, ok := lookup[T](ctx, r, info, key); ok {
				result = append(result, value)
				break
			}
		}
	}

	allOwners := make([]*inflight.Ownership, 0, len(owners))
	for _, owner := range owners {
		allOwners = append(allOwners, owner)
	}
	releaseAll := func() {
		for _, owner := range allOwners {
			owner.Release()
		}
	}
	defer releaseAll()

	logging.FromContext(ctx).DebugContext(
		ctx,
		"Fetching many",
		slog.String("resource", info.Path),
		slog.Int("requested", len(ids)),
		slog.Int("cached", len(result)),
		slog.Int("owned", len(owned)),
		slog.Int("followed", len(followed)),
	)

	var lock sync.Mutex
	var group errgroup.Group
	for _, chunk := range chunkIDs(owned) {
		group.Go(func() error {
			joined := joinIDs(chunk)
			values, expiresAt, err := fetchChunk[T](ctx, r, info, joined)
			if err != nil {
				return err
			}

			requested := make(map[I]struct{}, len(chunk))
			for _, id := range chunk {
				requested[id] = struct{}{}
			}

			lock.Lock()
			defer lock.Unlock()

			for _, value := range values {
				id := value.ResourceID()
				owner, isOwner := owners[id]
				if _, ok := requested[id]; !ok || !isOwner {
					err := fmt.Errorf("%w: %s id %v", domain.ErrUnexpectedEntity, info.Path, id)
					reporting.Report(ctx, err, map[string]string{"ids": joined})
					return err
				}
				delete(owners, id)

				r.client.cache.Insert(ctx, keyFor(id), value, expiresAt)
				owner.Publish(value)
				owner.Release()
				result = append(result, value)
			}
			return nil
		})
	}
	err := group.Wait()

	// Ids the API omitted have no value, let their followers fall back
	releaseAll()

	if err != nil {
		return nil, err
	}

	for _, f := range followed {
		r.client.metrics.inflightFollows.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", info.Path)))

		published, ok, err := f.subscription.Wait(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			if value, ok := castValue[T](published); ok {
				result = append(result, value)
				continue
			}
		}

		// Same path as a single lookup: check the cache, then fetch ourselves
		value, err := Single[T, I](ctx, r, f.id)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}

	return result, nil
}

// fetchChunk requests one comma separated list of ids. Nothing is cached
// until the caller has checked the entities against what it asked for.
func fetchChunk[T domain.Endpoint](ctx context.Context, r Requester, info domain.EndpointInfo, joinedIDs string) ([]T, time.Time, error) {
	resp, err := r.client.exec(ctx, info, info.Path, "ids="+joinedIDs)
	if err != nil {
		return nil, time.Time{}, err
	}
	values, err := decode[[]T](ctx, resp)
	if err != nil {
		return nil, time.Time{}, err
	}
	return values, r.expiresAt(resp.header), nil
}

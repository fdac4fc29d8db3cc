package client

import (
	"context"
	"net/url"

	"github.com/Amund211/gw2lib/internal/adapters/cache"
	"github.com/Amund211/gw2lib/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Get fetches a resource that lives at a fixed path, like the current build
func Get[T domain.Endpoint](ctx context.Context, r Requester) (T, error) {
	info := endpointOf[T]()

	ctx, span := r.client.tracer.Start(ctx, "Client.Get", trace.WithAttributes(attribute.String("resource", info.Path)))
	defer span.End()

	key := fingerprintFor[T](r, cache.ShapeItem, "")

	return resolve(ctx, r, info, key, func(ctx context.Context) (T, error) {
		return fetchInto[T](ctx, r, info, info.Path, key)
	})
}

// Single fetches one resource by id
func Single[T domain.IDEndpoint[I], I comparable](ctx context.Context, r Requester, id I) (T, error) {
	info := endpointOf[T]()

	ctx, span := r.client.tracer.Start(ctx, "Client.Single", trace.WithAttributes(
		attribute.String("resource", info.Path),
		attribute.String("id", idString(id)),
	))
	defer span.End()

	key := fingerprintFor[T](r, cache.ShapeItem, idString(id))
	path := domain.SingleItemPath(info, url.PathEscape(idString(id)))

	return resolve(ctx, r, info, key, func(ctx context.Context) (T, error) {
		return fetchInto[T](ctx, r, info, path, key)
	})
}

// TryGet returns the cached resource with the given id, without touching the
// network. Forced requesters never find anything.
func TryGet[T domain.IDEndpoint[I], I comparable](ctx context.Context, r Requester, id I) (T, bool) {
	info := endpointOf[T]()
	key := fingerprintFor[T](r, cache.ShapeItem, idString(id))
	return lookup[T](ctx, r, info, key)
}

// IDs lists every id the endpoint serves
func IDs[T domain.IDEndpoint[I], I comparable](ctx context.Context, r Requester) ([]I, error) {
	info := endpointOf[T]()

	ctx, span := r.client.tracer.Start(ctx, "Client.IDs", trace.WithAttributes(attribute.String("resource", info.Path)))
	defer span.End()

	key := fingerprintFor[T](r, cache.ShapeIDs, "")

	return resolve(ctx, r, info, key, func(ctx context.Context) ([]I, error) {
		return fetchInto[[]I](ctx, r, info, info.Path, key)
	})
}

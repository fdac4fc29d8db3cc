package client

import (
	"context"
	"fmt"

	"github.com/Amund211/gw2lib/internal/adapters/cache"
	"github.com/Amund211/gw2lib/internal/constants"
	"github.com/Amund211/gw2lib/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Page requests one page of a paged endpoint, returning its items and the
// total number of items across all pages. Pages bypass the cache.
func Page[T domain.Endpoint](ctx context.Context, r Requester, page int, pageSize int) ([]T, int, error) {
	info := endpointOf[T]()
	if !info.Paged {
		return nil, 0, fmt.Errorf("%w: %s is not paged", domain.ErrUnsupportedEndpointQuery, info.Path)
	}
	if pageSize < 1 || pageSize > constants.MAX_IDS_PER_REQUEST {
		return nil, 0, fmt.Errorf("%w: page size %d out of range", domain.ErrUnsupportedEndpointQuery, pageSize)
	}

	ctx, span := r.client.tracer.Start(ctx, "Client.Page", trace.WithAttributes(
		attribute.String("resource", info.Path),
		attribute.Int("page", page),
	))
	defer span.End()

	resp, err := r.client.exec(ctx, info, info.Path, fmt.Sprintf("page=%d&page_size=%d", page, pageSize))
	if err != nil {
		return nil, 0, err
	}

	values, err := decode[[]T](ctx, resp)
	if err != nil {
		return nil, 0, err
	}

	return values, resp.resultTotal(), nil
}

// All fetches every resource of the endpoint the most cache friendly way
// available: ids=all when supported, otherwise the id listing followed by Many.
// Paging is never picked as it cannot use the cache.
func All[T domain.IDEndpoint[I], I comparable](ctx context.Context, r Requester) ([]T, error) {
	if endpointOf[T]().SupportsAll {
		return AllByIDsAll[T, I](ctx, r)
	}
	return AllByRequestingIDs[T, I](ctx, r)
}

// AllByIDsAll fetches every resource in one ids=all request and caches each
func AllByIDsAll[T domain.IDEndpoint[I], I comparable](ctx context.Context, r Requester) ([]T, error) {
	info := endpointOf[T]()
	if !info.SupportsAll {
		return nil, fmt.Errorf("%w: %s does not support ids=all", domain.ErrUnsupportedEndpointQuery, info.Path)
	}

	ctx, span := r.client.tracer.Start(ctx, "Client.AllByIDsAll", trace.WithAttributes(attribute.String("resource", info.Path)))
	defer span.End()

	resp, err := r.client.exec(ctx, info, info.Path, "ids=all")
	if err != nil {
		return nil, err
	}

	return decodeAndCacheEach[T, I](ctx, r, resp)
}

// AllByPaging walks every page of the endpoint in order
func AllByPaging[T domain.Endpoint](ctx context.Context, r Requester) ([]T, error) {
	const pageSize = constants.MAX_IDS_PER_REQUEST

	result, total, err := Page[T](ctx, r, 0, pageSize)
	if err != nil {
		return nil, err
	}

	remaining := max(0, total-pageSize)
	pages := (remaining + pageSize - 1) / pageSize
	result = append(make([]T, 0, len(result)+remaining), result...)

	for page := 1; page <= pages; page++ {
		values, _, err := Page[T](ctx, r, page, pageSize)
		if err != nil {
			return nil, err
		}
		result = append(result, values...)
	}

	return result, nil
}

// AllByRequestingIDs lists every id, then fetches them through Many
func AllByRequestingIDs[T domain.IDEndpoint[I], I comparable](ctx context.Context, r Requester) ([]T, error) {
	ids, err := IDs[T, I](ctx, r)
	if err != nil {
		return nil, err
	}
	return Many[T, I](ctx, r, ids)
}

// decodeAndCacheEach caches every entity of a response that only holds
// entities of the requested resource
func decodeAndCacheEach[T domain.IDEndpoint[I], I comparable](ctx context.Context, r Requester, resp response) ([]T, error) {
	values, err := decode[[]T](ctx, resp)
	if err != nil {
		return nil, err
	}

	expiresAt := r.expiresAt(resp.header)
	for _, value := range values {
		key := fingerprintFor[T](r, cache.ShapeItem, idString(value.ResourceID()))
		r.client.cache.Insert(ctx, key, value, expiresAt)
	}
	return values, nil
}

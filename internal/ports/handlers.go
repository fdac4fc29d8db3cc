package ports

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/gw2lib/internal/client"
	"github.com/Amund211/gw2lib/internal/constants"
	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/Amund211/gw2lib/internal/logging"
	"github.com/Amund211/gw2lib/internal/ratelimiting"
	"github.com/Amund211/gw2lib/internal/reporting"
)

var errInvalidQuery = errors.New("invalid query")

type Middleware = func(http.HandlerFunc) http.HandlerFunc

// requesterFor picks the caching behaviour from the query string.
//
// ?force=true skips cache reads, ?cache=<seconds> overrides the expiry.
func requesterFor(c *client.Client, r *http.Request) (client.Requester, error) {
	requester := c.Requester()
	query := r.URL.Query()

	if rawForce := query.Get("force"); rawForce != "" {
		force, err := strconv.ParseBool(rawForce)
		if err != nil {
			return client.Requester{}, fmt.Errorf("%w: force=%s", errInvalidQuery, rawForce)
		}
		if force {
			requester = requester.Forced()
		}
	}

	if rawCache := query.Get("cache"); rawCache != "" {
		seconds, err := strconv.ParseUint(rawCache, 10, 32)
		if err != nil || seconds == 0 {
			return client.Requester{}, fmt.Errorf("%w: cache=%s", errInvalidQuery, rawCache)
		}
		requester = requester.Cached(time.Duration(seconds) * time.Second)
	}

	return requester, nil
}

func buildMiddleware(
	operation string,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
	ipRateLimiter ratelimiting.RequestRateLimiter,
) Middleware {
	onLimitExceeded := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logging.FromContext(ctx).InfoContext(ctx, "Rate limit exceeded", "statusCode", http.StatusTooManyRequests, "key", ipRateLimiter.KeyFor(r))
		writeErrorResponse(ctx, w, http.StatusTooManyRequests, "rate limit exceeded")
	}

	return ComposeMiddlewares(
		buildMetricsMiddleware(operation),
		logging.NewRequestLoggerMiddleware(rootLogger.With("operation", operation)),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(operation),
		NewRateLimitMiddleware(ipRateLimiter, onLimitExceeded),
	)
}

// MakeGetFixedHandler serves a resource living at a fixed path, like the build
func MakeGetFixedHandler[T domain.Endpoint](
	c *client.Client,
	operation string,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
	ipRateLimiter ratelimiting.RequestRateLimiter,
) http.HandlerFunc {
	middleware := buildMiddleware(operation, rootLogger, sentryMiddleware, ipRateLimiter)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requester, err := requesterFor(c, r)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		value, err := client.Get[T](ctx, requester)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, value)
	}

	return middleware(handler)
}

// MakeListResourceHandler serves GET /v1/{resource}.
//
// Without ids it lists every id, ?ids=all returns every entity and
// ?ids=1,2,3 returns the given entities.
func MakeListResourceHandler(
	c *client.Client,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
	ipRateLimiter ratelimiting.RequestRateLimiter,
) http.HandlerFunc {
	routes := resourceRoutes()
	middleware := buildMiddleware("list_resource", rootLogger, sentryMiddleware, ipRateLimiter)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		resource := r.PathValue("resource")
		rawIDs := r.URL.Query().Get("ids")

		ctx = logging.AddMetaToContext(ctx,
			slog.String("resource", resource),
			slog.String("ids", rawIDs),
		)
		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"resource": resource,
				"ids":      rawIDs,
			},
		)

		route, ok := routes[resource]
		if !ok {
			writeErrorResponse(ctx, w, http.StatusNotFound, "unknown resource")
			return
		}

		requester, err := requesterFor(c, r)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		var value any
		switch {
		case rawIDs == "":
			value, err = route.ids(ctx, requester)
		case rawIDs == "all":
			value, err = route.all(ctx, requester)
		default:
			value, err = route.many(ctx, requester, strings.Split(rawIDs, ","))
		}
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, value)
	}

	return middleware(handler)
}

// MakeGetResourceHandler serves GET /v1/{resource}/{id}
func MakeGetResourceHandler(
	c *client.Client,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
	ipRateLimiter ratelimiting.RequestRateLimiter,
) http.HandlerFunc {
	routes := resourceRoutes()
	middleware := buildMiddleware("get_resource", rootLogger, sentryMiddleware, ipRateLimiter)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		resource := r.PathValue("resource")
		rawID := r.PathValue("id")

		ctx = logging.AddMetaToContext(ctx,
			slog.String("resource", resource),
			slog.String("id", rawID),
		)
		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"resource": resource,
				"id":       rawID,
			},
		)

		route, ok := routes[resource]
		if !ok {
			writeErrorResponse(ctx, w, http.StatusNotFound, "unknown resource")
			return
		}

		requester, err := requesterFor(c, r)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		value, err := route.single(ctx, requester, rawID)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, value)
	}

	return middleware(handler)
}

// MakeGetResourcePageHandler serves GET /v1/{resource}/page/{page}.
//
// The page size is taken from ?page_size= and defaults to the maximum. The
// total number of entities is returned in X-Result-Total.
func MakeGetResourcePageHandler(
	c *client.Client,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
	ipRateLimiter ratelimiting.RequestRateLimiter,
) http.HandlerFunc {
	routes := resourceRoutes()
	middleware := buildMiddleware("get_resource_page", rootLogger, sentryMiddleware, ipRateLimiter)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		resource := r.PathValue("resource")
		rawPage := r.PathValue("page")
		rawPageSize := r.URL.Query().Get("page_size")

		ctx = logging.AddMetaToContext(ctx,
			slog.String("resource", resource),
			slog.String("page", rawPage),
		)

		route, ok := routes[resource]
		if !ok {
			writeErrorResponse(ctx, w, http.StatusNotFound, "unknown resource")
			return
		}

		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 0 {
			writeError(ctx, w, fmt.Errorf("%w: page=%s", errInvalidQuery, rawPage))
			return
		}

		pageSize := constants.MAX_IDS_PER_REQUEST
		if rawPageSize != "" {
			pageSize, err = strconv.Atoi(rawPageSize)
			if err != nil {
				writeError(ctx, w, fmt.Errorf("%w: page_size=%s", errInvalidQuery, rawPageSize))
				return
			}
		}

		requester, err := requesterFor(c, r)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		value, total, err := route.page(ctx, requester, page, pageSize)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		w.Header().Set("X-Result-Total", strconv.Itoa(total))
		writeJSON(ctx, w, value)
	}

	return middleware(handler)
}

// Package client fetches resources from the Guild Wars 2 API.
//
// Every operation consults the cache first, de-duplicates concurrent fetches
// of the same resource and shares one rate limit across all callers.
package client

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Amund211/gw2lib/internal/adapters/cache"
	"github.com/Amund211/gw2lib/internal/constants"
	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/Amund211/gw2lib/internal/inflight"
	"github.com/Amund211/gw2lib/internal/ratelimiting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type clientMetricsCollection struct {
	requestCount     metric.Int64Counter
	cacheResultCount metric.Int64Counter
	inflightFollows  metric.Int64Counter
	requestDuration  metric.Float64Histogram
}

func setupClientMetrics(meter metric.Meter) (clientMetricsCollection, error) {
	requestCount, err := meter.Int64Counter("gw2lib/client/request_count")
	if err != nil {
		return clientMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	cacheResultCount, err := meter.Int64Counter("gw2lib/client/cache_result_count")
	if err != nil {
		return clientMetricsCollection{}, fmt.Errorf("failed to create cache result count metric: %w", err)
	}

	inflightFollows, err := meter.Int64Counter("gw2lib/client/inflight_follow_count")
	if err != nil {
		return clientMetricsCollection{}, fmt.Errorf("failed to create inflight follow count metric: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"gw2lib/client/request_duration_seconds",
		metric.WithUnit("s"),
	)
	if err != nil {
		return clientMetricsCollection{}, fmt.Errorf("failed to create request duration metric: %w", err)
	}

	return clientMetricsCollection{
		requestCount:     requestCount,
		cacheResultCount: cacheResultCount,
		inflightFollows:  inflightFollows,
		requestDuration:  requestDuration,
	}, nil
}

type Client struct {
	httpClient HttpClient
	cache      cache.Cache
	limiter    ratelimiting.APILimiter
	inflight   *inflight.Registry

	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	host     string
	language domain.Language
	apiKey   string

	metrics clientMetricsCollection
	tracer  trace.Tracer
}

type Option func(*Client)

// WithHost overrides the API host, e.g. for a local mirror
func WithHost(host string) Option {
	return func(c *Client) {
		c.host = strings.TrimRight(host, "/")
	}
}

func WithLanguage(language domain.Language) Option {
	return func(c *Client) {
		c.language = language
	}
}

// WithAPIKey enables authenticated endpoints
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

func New(
	httpClient HttpClient,
	cache cache.Cache,
	limiter ratelimiting.APILimiter,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
	opts ...Option,
) (*Client, error) {
	const name = "gw2lib/client"

	meter := otel.Meter(name)
	tracer := otel.Tracer(name)

	metrics, err := setupClientMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	c := &Client{
		httpClient: httpClient,
		cache:      cache,
		limiter:    limiter,
		inflight:   inflight.NewRegistry(),

		nowFunc:   nowFunc,
		afterFunc: afterFunc,

		host:     constants.DEFAULT_API_HOST,
		language: domain.DefaultLanguage,

		metrics: metrics,
		tracer:  tracer,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) Language() domain.Language {
	return c.language
}

func (c *Client) Authenticated() bool {
	return c.apiKey != ""
}

// InflightCount is the number of fetches currently registered as running
func (c *Client) InflightCount() int {
	return c.inflight.Len()
}

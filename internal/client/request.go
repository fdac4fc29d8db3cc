package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/gw2lib/internal/constants"
	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/Amund211/gw2lib/internal/logging"
	"github.com/Amund211/gw2lib/internal/reporting"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const resultTotalHeader = "X-Result-Total"

// A successful API response
type response struct {
	statusCode int
	header     http.Header
	body       []byte
}

func (r response) resultTotal() int {
	total, err := strconv.Atoi(r.header.Get(resultTotalHeader))
	if err != nil || total < 0 {
		return 0
	}
	return total
}

func (c *Client) buildRequest(ctx context.Context, info domain.EndpointInfo, path string, extraQuery string) (*http.Request, error) {
	if info.Authenticated && c.apiKey == "" {
		return nil, fmt.Errorf("%w: %s requires an api key", domain.ErrNotAuthenticated, info.Path)
	}

	var query []string
	if info.Localized {
		query = append(query, "lang="+c.language.String())
	}
	if extraQuery != "" {
		query = append(query, extraQuery)
	}

	url := c.host + "/" + path
	if len(query) > 0 {
		url += "?" + strings.Join(query, "&")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("X-Schema-Version", info.Version)
	if info.Authenticated {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return req, nil
}

func (c *Client) waitForRateLimit(ctx context.Context) error {
	delay := c.limiter.Reserve(1)
	if delay <= 0 {
		return nil
	}

	logging.FromContext(ctx).DebugContext(ctx, "Waiting for rate limit", slog.String("delay", delay.String()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.afterFunc(delay):
		return nil
	}
}

// exec sends one request to the API and classifies the response
func (c *Client) exec(ctx context.Context, info domain.EndpointInfo, path string, extraQuery string) (response, error) {
	ctx, span := c.tracer.Start(ctx, "Client.exec")
	defer span.End()

	req, err := c.buildRequest(ctx, info, path, extraQuery)
	if err != nil {
		return response{}, err
	}

	err = c.waitForRateLimit(ctx)
	if err != nil {
		return response{}, err
	}

	start := c.nowFunc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err := fmt.Errorf("%w: failed to send request: %w", domain.ErrTransport, err)
		reporting.Report(ctx, err, map[string]string{"path": path})
		return response{}, err
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("%w: failed to read response body: %w", domain.ErrTransport, err)
		reporting.Report(ctx, err, map[string]string{"path": path})
		return response{}, err
	}

	duration := c.nowFunc().Sub(start)

	attributes := metric.WithAttributes(
		attribute.String("resource", info.Path),
		attribute.String("status_code", strconv.Itoa(resp.StatusCode)),
	)
	c.metrics.requestCount.Add(ctx, 1, attributes)
	c.metrics.requestDuration.Record(ctx, duration.Seconds(), attributes)

	logging.FromContext(ctx).InfoContext(
		ctx,
		"gw2 api request completed",
		slog.String("path", path),
		slog.String("query", extraQuery),
		slog.Int("status", resp.StatusCode),
		slog.String("duration", duration.String()),
	)

	err = c.classify(ctx, resp.StatusCode, data)
	if err != nil {
		return response{}, err
	}

	return response{
		statusCode: resp.StatusCode,
		header:     resp.Header,
		body:       data,
	}, nil
}

func (c *Client) classify(ctx context.Context, statusCode int, data []byte) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, string(data))
	case statusCode == http.StatusTooManyRequests:
		c.limiter.Penalize()
		return domain.ErrRateLimited
	}

	err := &domain.APIError{
		StatusCode: statusCode,
		Body:       string(data),
	}
	if statusCode >= 500 {
		reporting.Report(ctx, err)
	}
	return err
}

func decode[V any](ctx context.Context, resp response) (V, error) {
	var value V
	if err := json.Unmarshal(resp.body, &value); err != nil {
		err := fmt.Errorf("%w: %w", domain.ErrDecode, err)
		reporting.Report(ctx, err, map[string]string{"data": truncate(string(resp.body), 500)})
		return value, err
	}
	return value, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// expiresAt computes when a response fetched now stops being valid
func (r Requester) expiresAt(header http.Header) time.Time {
	now := r.client.nowFunc()
	if r.cacheDuration != 0 {
		return now.Add(r.cacheDuration)
	}
	return now.Add(cacheControlDuration(header.Get("Cache-Control")))
}

// cacheControlDuration reads max-age (or a bare number of seconds).
// The header wins when present, even below the 300s default; the default only
// applies when the header is missing or unparsable.
func cacheControlDuration(value string) time.Duration {
	for directive := range strings.SplitSeq(value, ",") {
		directive = strings.TrimSpace(directive)
		directive = strings.TrimPrefix(directive, "max-age=")
		seconds, err := strconv.Atoi(directive)
		if err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return constants.DEFAULT_CACHE_SECONDS * time.Second
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// The resource requires an API key, but the client has none
	ErrNotAuthenticated = errors.New("not authenticated")
	// The API rejected the API key (401)
	ErrUnauthorized = errors.New("unauthorized")
	// The API returned 429
	ErrRateLimited = errors.New("rate limited")

	ErrTransport                = errors.New("transport error")
	ErrDecode                   = errors.New("failed to decode response")
	ErrUnsupportedEndpointQuery = errors.New("unsupported endpoint query")

	// An in-flight request finished without a value and the cache had no entry
	ErrChannelClosed = errors.New("in-flight request closed without a value")

	// The API returned an entity that was not requested
	ErrUnexpectedEntity = errors.New("received unexpected entity from api")
)

// APIError is any non-2xx response not covered by a sentinel error
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned status code %d: %s", e.StatusCode, e.Body)
}

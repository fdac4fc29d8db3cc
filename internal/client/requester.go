package client

import "time"

// Requester carries per-call caching behaviour.
//
// The zero cache duration means the expiry is taken from the response.
type Requester struct {
	client        *Client
	forced        bool
	cacheDuration time.Duration
}

// Requester returns a cache-aware requester
func (c *Client) Requester() Requester {
	return Requester{client: c}
}

// Forced returns a requester that skips cache reads. Results are still cached.
func (c *Client) Forced() Requester {
	return c.Requester().Forced()
}

// Cached returns a requester that caches results for d instead of the
// duration the API suggests
func (c *Client) Cached(d time.Duration) Requester {
	return c.Requester().Cached(d)
}

func (r Requester) Forced() Requester {
	r.forced = true
	return r
}

func (r Requester) Cached(d time.Duration) Requester {
	r.cacheDuration = d
	return r
}

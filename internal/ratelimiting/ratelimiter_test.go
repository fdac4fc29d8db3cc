package ratelimiting

import (
	"net/http"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockedRateLimiter struct {
	consumeFunc func(key string) bool
}

func (m *mockedRateLimiter) Consume(key string) bool {
	return m.consumeFunc(key)
}

func TestTokenBucketRateLimiter(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rateLimiter, stop := NewTokenBucketRateLimiter(1, 2)
		defer stop()

		assert.True(t, rateLimiter.Consume("user2"))

		// Burst of 2
		assert.True(t, rateLimiter.Consume("user1"))
		assert.True(t, rateLimiter.Consume("user1"))
		assert.False(t, rateLimiter.Consume("user1"))

		time.Sleep(1000 * time.Millisecond)

		// Refill rate of 1
		assert.True(t, rateLimiter.Consume("user1"))
		assert.False(t, rateLimiter.Consume("user1"))

		// Burst of 2 - even after refill
		assert.True(t, rateLimiter.Consume("user3"))
		assert.True(t, rateLimiter.Consume("user3"))
		assert.False(t, rateLimiter.Consume("user3"))

		assert.True(t, rateLimiter.Consume("user2"))
		assert.True(t, rateLimiter.Consume("user2"))
		assert.False(t, rateLimiter.Consume("user2"))
	})
}

func TestIPKeyFunc(t *testing.T) {
	t.Parallel()

	cases := []struct {
		remoteAddr string
		expected   string
	}{
		{"123.123.123.123", "ip: 123.123.123.123"},
		{"123.123.123.123:54321", "ip: 123.123.123.123"},
		{"[2001:db8::1]:443", "ip: [2001:db8::1]"},
	}
	for _, c := range cases {
		t.Run(c.remoteAddr, func(t *testing.T) {
			t.Parallel()

			request := &http.Request{RemoteAddr: c.remoteAddr}
			assert.Equal(t, c.expected, IPKeyFunc(request))
		})
	}
}

func TestRequestBasedRateLimiter(t *testing.T) {
	t.Parallel()

	var expectedKey string
	var allowed bool
	rateLimiter := &mockedRateLimiter{
		consumeFunc: func(key string) bool {
			t.Helper()
			assert.Equal(t, expectedKey, key)
			return allowed
		},
	}
	requestRateLimiter := NewRequestBasedRateLimiter(rateLimiter, IPKeyFunc)

	expectedKey = "ip: 1.1.1.1"
	allowed = true
	assert.True(t, requestRateLimiter.Consume(&http.Request{RemoteAddr: "1.1.1.1"}))
	assert.True(t, requestRateLimiter.Consume(&http.Request{RemoteAddr: "1.1.1.1"}))
	allowed = false
	assert.False(t, requestRateLimiter.Consume(&http.Request{RemoteAddr: "1.1.1.1"}))

	expectedKey = "ip: 2.1.1.1"
	allowed = true
	assert.True(t, requestRateLimiter.Consume(&http.Request{RemoteAddr: "2.1.1.1"}))
	assert.Equal(t, "ip: 2.1.1.1", requestRateLimiter.KeyFor(&http.Request{RemoteAddr: "2.1.1.1:80"}))

	expectedKey = "ip: 1.1.1.1"
	allowed = false
	assert.False(t, requestRateLimiter.Consume(&http.Request{RemoteAddr: "1.1.1.1"}))
}

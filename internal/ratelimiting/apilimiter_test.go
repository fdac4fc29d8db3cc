package ratelimiting_test

import (
	"testing"
	"time"

	"github.com/Amund211/gw2lib/internal/ratelimiting"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketAPILimiter(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	t.Run("burst is free, then refill rate applies", func(t *testing.T) {
		t.Parallel()

		now := start
		// One permit per second
		limiter := ratelimiting.NewTokenBucketAPILimiter(60, 3, func() time.Time { return now })

		require.Zero(t, limiter.Reserve(1))
		require.Zero(t, limiter.Reserve(1))
		require.Zero(t, limiter.Reserve(1))

		require.Equal(t, time.Second, limiter.Reserve(1))
		require.Equal(t, 2*time.Second, limiter.Reserve(1))

		now = now.Add(10 * time.Second)
		require.Zero(t, limiter.Reserve(1))
	})

	t.Run("reserve many at once", func(t *testing.T) {
		t.Parallel()

		now := start
		limiter := ratelimiting.NewTokenBucketAPILimiter(60, 3, func() time.Time { return now })

		require.Zero(t, limiter.Reserve(3))
		require.Equal(t, 2*time.Second, limiter.Reserve(2))
	})

	t.Run("reservations above burst are capped", func(t *testing.T) {
		t.Parallel()

		now := start
		limiter := ratelimiting.NewTokenBucketAPILimiter(60, 3, func() time.Time { return now })

		require.Zero(t, limiter.Reserve(10))
		require.Equal(t, time.Second, limiter.Reserve(1))
	})

	t.Run("zero permits never wait", func(t *testing.T) {
		t.Parallel()

		now := start
		limiter := ratelimiting.NewTokenBucketAPILimiter(60, 1, func() time.Time { return now })

		require.Zero(t, limiter.Reserve(1))
		require.Zero(t, limiter.Reserve(0))
	})

	t.Run("penalize drains the bucket", func(t *testing.T) {
		t.Parallel()

		now := start
		limiter := ratelimiting.NewTokenBucketAPILimiter(60, 3, func() time.Time { return now })

		limiter.Penalize()

		require.Equal(t, time.Second, limiter.Reserve(1))
	})
}

func TestUnlimitedAPILimiter(t *testing.T) {
	t.Parallel()

	limiter := ratelimiting.NewUnlimitedAPILimiter()
	for range 1000 {
		require.Zero(t, limiter.Reserve(200))
	}
	limiter.Penalize()
	require.Zero(t, limiter.Reserve(1))
}

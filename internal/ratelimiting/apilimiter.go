package ratelimiting

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// APILimiter gates outbound requests to a shared upstream budget
type APILimiter interface {
	// Reserve takes n permits and returns how long the caller must wait
	// before sending its request.
	Reserve(n int) time.Duration

	// Penalize drains the budget after the upstream told us to slow down
	Penalize()
}

type RequestsPerMinute int

type tokenBucketAPILimiter struct {
	limiter *rate.Limiter
	nowFunc func() time.Time

	// ReserveN with a time argument is not monotonic across goroutines
	lock sync.Mutex
}

func NewTokenBucketAPILimiter(requestsPerMinute RequestsPerMinute, burstSize BurstSize, nowFunc func() time.Time) APILimiter {
	limit := rate.Limit(float64(requestsPerMinute) / time.Minute.Seconds())
	return &tokenBucketAPILimiter{
		limiter: rate.NewLimiter(limit, int(burstSize)),
		nowFunc: nowFunc,
	}
}

func (l *tokenBucketAPILimiter) Reserve(n int) time.Duration {
	l.lock.Lock()
	defer l.lock.Unlock()

	if n <= 0 {
		return 0
	}
	// A reservation above the burst size can never be satisfied
	n = min(n, l.limiter.Burst())

	now := l.nowFunc()
	reservation := l.limiter.ReserveN(now, n)
	if !reservation.OK() {
		return 0
	}
	return reservation.DelayFrom(now)
}

func (l *tokenBucketAPILimiter) Penalize() {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.nowFunc()
	l.limiter.ReserveN(now, l.limiter.Burst())
}

type unlimitedAPILimiter struct{}

func (unlimitedAPILimiter) Reserve(int) time.Duration { return 0 }

func (unlimitedAPILimiter) Penalize() {}

// NewUnlimitedAPILimiter returns a limiter that never delays
func NewUnlimitedAPILimiter() APILimiter {
	return unlimitedAPILimiter{}
}

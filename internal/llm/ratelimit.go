package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter is a token bucket sized to a per-minute request budget.
type rateLimiter struct {
	limiter  *rate.Limiter
	closed   chan struct{}
	capacity int
	once     sync.Once
}

// newRateLimiter creates a new rate limiter with the specified requests per minute.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimit
	}

	return &rateLimiter{
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
		capacity: requestsPerMinute,
		closed:   make(chan struct{}),
	}
}

// wait blocks until a token is available, the context is canceled or the
// limiter is closed.
func (rl *rateLimiter) wait(ctx context.Context) error {
	select {
	case <-rl.closed:
		return fmt.Errorf("rate limiter closed")
	default:
	}

	if err := rl.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter canceled: %w", err)
	}
	return nil
}

// tryAcquire attempts to acquire a token without blocking.
func (rl *rateLimiter) tryAcquire() bool {
	return rl.limiter.Allow()
}

// Close makes further waits fail.
func (rl *rateLimiter) Close() {
	rl.once.Do(func() { close(rl.closed) })
}

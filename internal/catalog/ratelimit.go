package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterMap holds one rate.Limiter per source, created once at startup
// and shared by every caller, so the minimum inter-call delay each catalog
// requires holds globally rather than per worker.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[SourceName]*rate.Limiter
}

// NewRateLimiterMap creates limiters from the minimum delay between calls
// for each source.
func NewRateLimiterMap(delays map[SourceName]time.Duration) *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[SourceName]*rate.Limiter, len(delays)),
	}
	for name, d := range delays {
		m.limiters[name] = rate.NewLimiter(rate.Every(d), 1)
	}
	return m
}

// Wait blocks until the rate limiter for the given source allows a request,
// or the context is canceled. Sources without a configured limiter pass
// through immediately.
func (m *RateLimiterMap) Wait(ctx context.Context, name SourceName) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

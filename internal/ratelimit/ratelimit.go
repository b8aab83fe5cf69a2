// Package ratelimit provides per-tenant intake rate limiting backed by
// the cache layer's windowed counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Counter is the windowed counter surface the cache backends expose.
// The LRU, Redis, and two-phase caches all satisfy it.
type Counter interface {
	IncrementCounter(ctx context.Context, tenantID string, key string, window time.Duration) (int64, error)
}

// Limiter enforces a fixed-window request budget per tenant and key.
type Limiter struct {
	counter Counter
	limit   int64
	window  time.Duration
}

// NewLimiter creates a limiter. limit is the number of requests allowed
// per window; a non-positive limit disables enforcement.
func NewLimiter(counter Counter, limit int64, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		counter: counter,
		limit:   limit,
		window:  window,
	}
}

// Allow increments the tenant's counter for the key and reports whether
// the request is within budget. The returned count includes the current
// request. Counter failures admit the request; a degraded cache must
// not take intake down with it.
func (l *Limiter) Allow(ctx context.Context, tenantID string, key string) (bool, int64, error) {
	if tenantID == "" || key == "" {
		return false, 0, fmt.Errorf("tenantID and key are required")
	}

	if l.limit <= 0 || l.counter == nil {
		return true, 0, nil
	}

	count, err := l.counter.IncrementCounter(ctx, tenantID, "rate:"+key, l.window)
	if err != nil {
		return true, 0, err
	}

	return count <= l.limit, count, nil
}

// Limit returns the configured per-window budget.
func (l *Limiter) Limit() int64 {
	return l.limit
}

// Window returns the counter window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crossborder-intel/kestrel/internal/cache"
)

func TestLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("WithinBudget", func(t *testing.T) {
		lru := cache.NewLRUCache(100)
		defer lru.Close()

		limiter := NewLimiter(lru, 3, time.Minute)

		for i := 1; i <= 3; i++ {
			ok, count, err := limiter.Allow(ctx, "tenant-001", "intake")
			if err != nil {
				t.Fatalf("Allow failed: %v", err)
			}
			if !ok {
				t.Errorf("request %d should be allowed", i)
			}
			if count != int64(i) {
				t.Errorf("expected count %d, got %d", i, count)
			}
		}
	})

	t.Run("OverBudget", func(t *testing.T) {
		lru := cache.NewLRUCache(100)
		defer lru.Close()

		limiter := NewLimiter(lru, 2, time.Minute)

		limiter.Allow(ctx, "tenant-001", "intake")
		limiter.Allow(ctx, "tenant-001", "intake")

		ok, count, err := limiter.Allow(ctx, "tenant-001", "intake")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if ok {
			t.Error("third request should be rejected with limit 2")
		}
		if count != 3 {
			t.Errorf("expected count 3, got %d", count)
		}
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		lru := cache.NewLRUCache(100)
		defer lru.Close()

		limiter := NewLimiter(lru, 1, time.Minute)

		limiter.Allow(ctx, "tenant-a", "intake")

		ok, count, err := limiter.Allow(ctx, "tenant-b", "intake")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !ok {
			t.Error("tenant-b should have its own budget")
		}
		if count != 1 {
			t.Errorf("expected count 1 for tenant-b, got %d", count)
		}
	})

	t.Run("DisabledLimit", func(t *testing.T) {
		lru := cache.NewLRUCache(100)
		defer lru.Close()

		limiter := NewLimiter(lru, 0, time.Minute)

		for i := 0; i < 10; i++ {
			ok, _, err := limiter.Allow(ctx, "tenant-001", "intake")
			if err != nil {
				t.Fatalf("Allow failed: %v", err)
			}
			if !ok {
				t.Error("disabled limiter should always allow")
			}
		}
	})

	t.Run("RequiresTenantAndKey", func(t *testing.T) {
		limiter := NewLimiter(nil, 5, time.Minute)

		if _, _, err := limiter.Allow(ctx, "", "intake"); err == nil {
			t.Error("expected error for empty tenantID")
		}
		if _, _, err := limiter.Allow(ctx, "tenant-001", ""); err == nil {
			t.Error("expected error for empty key")
		}
	})

	t.Run("CounterFailureAdmits", func(t *testing.T) {
		limiter := NewLimiter(failingCounter{}, 1, time.Minute)

		ok, _, err := limiter.Allow(ctx, "tenant-001", "intake")
		if err == nil {
			t.Error("expected counter error to surface")
		}
		if !ok {
			t.Error("counter failure should admit the request")
		}
	})
}

type failingCounter struct{}

func (failingCounter) IncrementCounter(ctx context.Context, tenantID string, key string, window time.Duration) (int64, error) {
	return 0, errors.New("counter unavailable")
}

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default limits applied to the auth endpoints: a fixed window per
// client IP and purpose (login, register).
const (
	DefaultMaxRequests = 10
	DefaultWindow      = 15 * time.Minute
)

// Limiter is a fixed-window rate limiter backed by Redis.
type Limiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client:      client,
		maxRequests: DefaultMaxRequests,
		window:      DefaultWindow,
	}
}

// NewLimiterWithConfig creates a limiter with custom limits.
func NewLimiterWithConfig(client *redis.Client, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
	}
}

func ipKey(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

// CheckIPRateLimit reports whether the given IP has exhausted its
// request budget for the purpose within the current window.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(purpose, ip)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get rate limit counter: %w", err)
	}

	return count >= l.maxRequests, nil
}

// RecordIPRequest increments the request counter for the IP and purpose,
// starting the window on the first request.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	key := ipKey(purpose, ip)

	pipe := l.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}

	return nil
}

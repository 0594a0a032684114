package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window request counter backed by Redis
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// RateDecision is the outcome of one Allow call
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// NewRateLimiter creates a limiter allowing limit hits per key per window
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

func rateKey(key string) string {
	return keyPrefix + ":rl:" + key
}

// Allow counts one hit for key in the current window
func (l *RateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	k := rateKey(key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateDecision{}, err
	}

	count := int(incr.Val())
	resetIn := ttl.Val()
	if resetIn < 0 {
		resetIn = l.window
	}

	return RateDecision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-count, 0),
		ResetIn:   resetIn,
	}, nil
}

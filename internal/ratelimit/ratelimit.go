package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Limiter bounds the rate of an operation per subject key.
type Limiter interface {
	// Allow reports whether the subject may perform another attempt within
	// the current window.
	Allow(ctx context.Context, subject string) (bool, error)
}

// keyCheckoutAttempts counts checkout attempts per user per window.
const keyCheckoutAttempts = "ratelimit:checkout:%s"

// redisLimiter is a fixed-window counter over Redis. The first attempt in a
// window creates the key with a TTL; the counter and its expiry reset
// together when the window lapses.
type redisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger zerolog.Logger
}

// New creates a Redis-backed fixed-window limiter.
func New(client *redis.Client, limit int, window time.Duration, logger zerolog.Logger) Limiter {
	return &redisLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow reports whether the subject may perform another attempt.
func (l *redisLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	key := fmt.Sprintf(keyCheckoutAttempts, subject)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("failed to set rate limit expiry")
		}
	}

	if count > int64(l.limit) {
		l.logger.Debug().
			Str("subject", subject).
			Int64("count", count).
			Int("limit", l.limit).
			Msg("rate limit exceeded")
		return false, nil
	}

	return true, nil
}

// Package ratelimit provides a Redis backed store for echo's rate limiter
// middleware, so every replica of the API shares the same counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// KeyPrefix namespaces the counter keys.
const KeyPrefix = "greedy:ratelimit"

// DefaultTimeout bounds a single Allow round trip.
const DefaultTimeout = 250 * time.Millisecond

// RedisStore is a fixed window counter: each client gets limit requests per
// window, counted under a key that expires with the window.
//
// It satisfies echo's middleware.RateLimiterStore. Redis errors let the
// request through; an outage must not take the API down with it.
type RedisStore struct {
	client  redis.Cmdable
	limit   int64
	window  time.Duration
	timeout time.Duration
	logger  *zerolog.Logger

	now func() time.Time
}

func NewRedisStore(client redis.Cmdable, limit int, window time.Duration, logger *zerolog.Logger) *RedisStore {
	return &RedisStore{
		client:  client,
		limit:   int64(limit),
		window:  window,
		timeout: DefaultTimeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Allow counts one request for identifier and reports whether it is within
// the limit.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	key := s.key(identifier)

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("rate limit store unavailable, allowing request")
		return true, nil
	}

	return count.Val() <= s.limit, nil
}

func (s *RedisStore) key(identifier string) string {
	bucket := s.now().UnixNano() / int64(s.window)
	return fmt.Sprintf("%s:%s:%d", KeyPrefix, identifier, bucket)
}

package ratelimiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares bucket state across nodes using a fixed-window counter:
// INCR per key with the window TTL set on first hit. Coarser than the
// in-memory continuous refill, but atomic without scripting and accurate
// enough for abuse throttling on auth endpoints.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a store on an existing client. The prefix isolates
// limiter keys from other application data in the same database.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	redisKey := s.keyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.IncrBy(ctx, redisKey, int64(tokens))
	// NX keeps the window anchored at the first request instead of sliding.
	pipe.ExpireNX(ctx, redisKey, config.RefillInterval)
	ttl := pipe.TTL(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}

	remaining := config.Capacity - int(incr.Val())
	if remaining < -1 {
		remaining = -1
	}

	resetAt := time.Now().Add(config.RefillInterval)
	if d := ttl.Val(); d > 0 {
		resetAt = time.Now().Add(d)
	}

	return remaining, resetAt, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

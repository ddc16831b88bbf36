package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucketState struct {
	tokens     float64
	lastRefill time.Time
}

// MemoryStore keeps bucket state in process memory. Suitable for a single
// node or for tests; multi-node deployments share state via RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucketState)}
}

func (s *MemoryStore) ConsumeTokens(_ context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.buckets[key]
	if !ok {
		state = &bucketState{tokens: float64(config.Capacity), lastRefill: now}
		s.buckets[key] = state
	}

	// Continuous refill proportional to elapsed time since the last check.
	elapsed := now.Sub(state.lastRefill)
	refill := elapsed.Seconds() / config.RefillInterval.Seconds() * float64(config.RefillRate)
	state.tokens = min(state.tokens+refill, float64(config.Capacity))
	state.lastRefill = now

	state.tokens -= float64(tokens)
	remaining := int(state.tokens)
	if state.tokens < 0 {
		// Clamp the debt so one burst cannot extend the penalty indefinitely.
		state.tokens = -1
		remaining = -1
	}

	resetAt := now.Add(config.RefillInterval)
	return remaining, resetAt, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

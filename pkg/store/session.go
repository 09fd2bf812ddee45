package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionsRedisKey = "sessions"

// MemorySessionStore keeps chat tenant selections in memory.
type MemorySessionStore struct {
	mu      sync.RWMutex
	tenants map[string]string
}

// NewMemorySessionStore constructs an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{tenants: make(map[string]string)}
}

// SetActiveTenant records the chat's selected tenant key.
func (s *MemorySessionStore) SetActiveTenant(_ context.Context, chatID, key string) error {
	s.mu.Lock()
	s.tenants[chatID] = key
	s.mu.Unlock()
	return nil
}

// ActiveTenant returns the chat's selected tenant key, if any.
func (s *MemorySessionStore) ActiveTenant(_ context.Context, chatID string) (string, bool, error) {
	s.mu.RLock()
	key, ok := s.tenants[chatID]
	s.mu.RUnlock()
	return key, ok, nil
}

// RedisSessionStore keeps chat tenant selections in one Redis hash, so
// selections survive restarts alongside the rest of the cache state.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(addr, password string, db int) *RedisSessionStore {
	return &RedisSessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// SetActiveTenant records the chat's selected tenant key.
func (s *RedisSessionStore) SetActiveTenant(ctx context.Context, chatID, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.client.HSet(ctx, sessionsRedisKey, chatID, key).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// ActiveTenant returns the chat's selected tenant key, if any.
func (s *RedisSessionStore) ActiveTenant(ctx context.Context, chatID string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	key, err := s.client.HGet(ctx, sessionsRedisKey, chatID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return key, true, nil
}

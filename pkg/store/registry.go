package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const tenantsRedisKey = "tenants"

// MemoryTenantRegistry keeps tenant bindings in memory.
type MemoryTenantRegistry struct {
	mu       sync.RWMutex
	bindings map[string]string
}

// NewMemoryTenantRegistry constructs an in-memory registry.
func NewMemoryTenantRegistry() *MemoryTenantRegistry {
	return &MemoryTenantRegistry{bindings: make(map[string]string)}
}

// Bind upserts a key -> location binding.
func (r *MemoryTenantRegistry) Bind(_ context.Context, key, location string) error {
	r.mu.Lock()
	r.bindings[key] = location
	r.mu.Unlock()
	return nil
}

// Lookup resolves a key to its ledger location.
func (r *MemoryTenantRegistry) Lookup(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	location, ok := r.bindings[key]
	r.mu.RUnlock()
	return location, ok, nil
}

// RedisTenantRegistry keeps tenant bindings in one Redis hash, so every
// process sees the most recent Bind immediately.
type RedisTenantRegistry struct {
	client *redis.Client
}

// NewRedisTenantRegistry builds a Redis-backed registry.
func NewRedisTenantRegistry(addr, password string, db int) *RedisTenantRegistry {
	return &RedisTenantRegistry{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Bind upserts a key -> location binding.
func (r *RedisTenantRegistry) Bind(ctx context.Context, key, location string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.client.HSet(ctx, tenantsRedisKey, key, location).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Lookup resolves a key to its ledger location.
func (r *RedisTenantRegistry) Lookup(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	location, err := r.client.HGet(ctx, tenantsRedisKey, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return location, true, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bookbot/pkg/domain"
)

// MemoryPendingStore keeps staged records in memory. Used in tests and as a
// fallback when no cache is configured.
type MemoryPendingStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryPendingEntry
}

type memoryPendingEntry struct {
	book   domain.Book
	expiry time.Time
}

// NewMemoryPendingStore constructs an in-memory pending store.
func NewMemoryPendingStore(ttl time.Duration) *MemoryPendingStore {
	return &MemoryPendingStore{
		ttl:     ttl,
		entries: make(map[string]memoryPendingEntry),
	}
}

// Stage stores the record under a fresh id.
func (s *MemoryPendingStore) Stage(ctx context.Context, book domain.Book) (string, error) {
	id := uuid.NewString()
	if err := s.Restage(ctx, id, book); err != nil {
		return "", err
	}
	return id, nil
}

// FetchAndRemove atomically claims and deletes the entry.
func (s *MemoryPendingStore) FetchAndRemove(_ context.Context, id string) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return domain.Book{}, ErrNotFound
	}
	delete(s.entries, id)
	if time.Now().After(entry.expiry) {
		return domain.Book{}, ErrNotFound
	}
	return entry.book, nil
}

// Restage puts a record back under a known id with a fresh TTL.
func (s *MemoryPendingStore) Restage(_ context.Context, id string, book domain.Book) error {
	s.mu.Lock()
	s.entries[id] = memoryPendingEntry{book: book, expiry: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// RedisPendingStore keeps staged records in Redis with TTL. Expiry is
// enforced by Redis itself; there is no background sweep.
type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPendingStore builds a Redis-backed pending store.
func NewRedisPendingStore(addr, password string, db int, ttl time.Duration) *RedisPendingStore {
	return &RedisPendingStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// Stage writes the record under a fresh id with TTL.
func (s *RedisPendingStore) Stage(ctx context.Context, book domain.Book) (string, error) {
	id := uuid.NewString()
	if err := s.Restage(ctx, id, book); err != nil {
		return "", err
	}
	return id, nil
}

// FetchAndRemove claims the entry with GETDEL, so a concurrent or repeated
// confirmation of the same id observes ErrNotFound instead of committing a
// duplicate row.
func (s *RedisPendingStore) FetchAndRemove(ctx context.Context, id string) (domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	payload, err := s.client.GetDel(ctx, pendingRedisKey(id)).Result()
	if err == redis.Nil {
		return domain.Book{}, ErrNotFound
	}
	if err != nil {
		return domain.Book{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var book domain.Book
	if err := json.Unmarshal([]byte(payload), &book); err != nil {
		return domain.Book{}, fmt.Errorf("decode pending record %s: %w", id, err)
	}
	return book, nil
}

// Restage writes the record under a known id with a fresh TTL.
func (s *RedisPendingStore) Restage(ctx context.Context, id string, book domain.Book) error {
	payload, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("encode pending record: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.client.Set(ctx, pendingRedisKey(id), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func pendingRedisKey(id string) string {
	return "pending:" + id
}

// Package cache keeps per-child attendance record lists in front of the
// store. Entries are always replaced as a whole, never merged.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
)

// Backend is a byte-oriented key/value store with expiry.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Records caches the full, ordered record list of each child.
type Records struct {
	backend Backend
	ttl     time.Duration
}

// NewRecords returns a record cache on top of backend. A zero ttl means
// entries never expire.
func NewRecords(backend Backend, ttl time.Duration) *Records {
	return &Records{backend: backend, ttl: ttl}
}

func recordsKey(childID string) string {
	return "tat:records:" + childID
}

// Get returns the cached list for childID and whether it was present.
func (c *Records) Get(ctx context.Context, childID string) ([]model.AttendanceRecord, bool, error) {
	data, ok, err := c.backend.Get(ctx, recordsKey(childID))
	if err != nil || !ok {
		return nil, false, err
	}
	var recs []model.AttendanceRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, false, fmt.Errorf("decoding cached records for %s: %w", childID, err)
	}
	return recs, true, nil
}

// Replace stores recs as the complete list for childID.
func (c *Records) Replace(ctx context.Context, childID string, recs []model.AttendanceRecord) error {
	if recs == nil {
		recs = []model.AttendanceRecord{}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encoding records for %s: %w", childID, err)
	}
	return c.backend.Set(ctx, recordsKey(childID), data, c.ttl)
}

// Invalidate drops the entry for childID.
func (c *Records) Invalidate(ctx context.Context, childID string) error {
	return c.backend.Delete(ctx, recordsKey(childID))
}

// RedisBackend stores entries in redis.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to addr and pings it.
func NewRedisBackend(ctx context.Context, addr string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisBackend{client: client}, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

// Close closes the redis client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// MemoryBackend is an in-process Backend used when redis is not configured.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryBackend returns an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: map[string]memoryEntry{}, now: time.Now}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !b.now().Before(e.expires) {
		delete(b.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = b.now().Add(ttl)
	}
	b.entries[key] = e
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
	return nil
}

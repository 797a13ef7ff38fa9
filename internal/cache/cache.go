package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the shared key-value cache behind duplicate suppression, rate
// limiting and the OAuth token cache. All operations are atomic at the
// cache boundary so multiple service instances can coordinate through it.
type Store interface {
	// SetNX writes the key only if absent. Returns true when this call won.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Incr increments a counter, starting its TTL window on first use.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

type memoryEntry struct {
	value     string
	counter   int64
	expiresAt time.Time
}

// memoryStore is a single-process fallback used when Redis is unreachable.
// Cross-instance coordination is lost in this mode.
type memoryStore struct {
	mu     sync.Mutex
	items  map[string]*memoryEntry
	nextGC time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		items:  make(map[string]*memoryEntry),
		nextGC: time.Now().Add(time.Minute),
	}
}

func (s *memoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gc()

	if e, ok := s.items[key]; ok && e.expiresAt.After(time.Now()) {
		return false, nil
	}
	s.items[key] = &memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok || e.expiresAt.Before(time.Now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gc()

	s.items[key] = &memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gc()

	e, ok := s.items[key]
	if !ok || e.expiresAt.Before(time.Now()) {
		e = &memoryEntry{expiresAt: time.Now().Add(ttl)}
		s.items[key] = e
	}
	e.counter++
	return e.counter, nil
}

func (s *memoryStore) gc() {
	now := time.Now()
	if now.Before(s.nextGC) {
		return
	}
	for key, e := range s.items {
		if e.expiresAt.Before(now) {
			delete(s.items, key)
		}
	}
	s.nextGC = now.Add(time.Minute)
}

// NewMemoryStore returns an in-process Store, used in tests and as the
// degraded mode when Redis is down.
func NewMemoryStore() Store {
	return newMemoryStore()
}

// New builds a Redis store and falls back to in-memory when the server is
// unreachable. The returned error reports the fallback; the Store is
// usable either way.
func New(addr, pass string, db int) (Store, error) {
	if addr == "" {
		return newMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryStore(), err
	}

	return &redisStore{client: client}, nil
}

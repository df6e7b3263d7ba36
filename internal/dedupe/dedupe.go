// Package dedupe suppresses webhook redeliveries. CRM webhooks are delivered
// at-least-once; every event carries a stable id, so a short-lived seen-set
// is enough to make handlers effectively once-per-event.
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store answers whether an event id has been processed recently. Seen is a
// read-only check; Mark is called only after the handler succeeded, so a
// failed delivery stays retriable via the sender's redelivery.
type Store interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

const keyPrefix = "callsync:webhook:"

// RedisStore backs the seen-set with SET NX and a TTL, so dedup survives
// process restarts and is shared across replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Mark(ctx context.Context, eventID string) error {
	return s.client.SetNX(ctx, keyPrefix+eventID, 1, s.ttl).Err()
}

// MemoryStore is the single-process fallback when no Redis address is
// configured. Entries expire lazily on lookup.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Seen(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.seen[eventID]
	return ok && s.now().Before(exp), nil
}

func (s *MemoryStore) Mark(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, id)
		}
	}
	s.seen[eventID] = now.Add(s.ttl)
	return nil
}

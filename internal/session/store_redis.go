package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
)

// DefaultTTL is how long an idle session is kept in Redis.
const DefaultTTL = 2 * time.Hour

// RedisStore keeps sessions as JSON documents in Redis/Dragonfly. Every
// save refreshes the TTL, so only idle sessions expire.
type RedisStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(c *cache.Cache, ttl time.Duration) (*RedisStore, error) {
	if c == nil || c.Client == nil {
		return nil, fmt.Errorf("cache is nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{cache: c, ttl: ttl}, nil
}

func (r *RedisStore) key(id string) string {
	return r.cache.Key("session", id)
}

func (r *RedisStore) Create(ctx context.Context, s Session) (Session, error) {
	prepare(&s)
	ok, err := r.cache.AddJSON(ctx, r.key(s.ID), s, r.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return Session{}, fmt.Errorf("create session: id collision on %s", s.ID)
	}
	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	var s Session
	err := r.cache.GetJSON(ctx, r.key(id), &s)
	if errors.Is(err, cache.ErrMiss) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// Save writes s only if the stored copy still has s.Version, so replicas
// sharing the same Redis cannot overwrite each other's progress.
func (r *RedisStore) Save(ctx context.Context, s Session) error {
	next := s
	next.Version++
	err := r.cache.SwapJSON(ctx, r.key(s.ID), next, r.ttl, func(current []byte) error {
		var stored struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(current, &stored); err != nil {
			return fmt.Errorf("decode stored version: %w", err)
		}
		if stored.Version != s.Version {
			return ErrSessionConflict
		}
		return nil
	})
	switch {
	case errors.Is(err, cache.ErrMiss):
		return ErrSessionNotFound
	case errors.Is(err, cache.ErrConflict):
		return ErrSessionConflict
	case errors.Is(err, ErrSessionConflict):
		return err
	case err != nil:
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

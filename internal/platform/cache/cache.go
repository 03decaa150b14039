// Package cache provides a Dragonfly/Redis client wrapper with JSON helpers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrMiss is returned when a key does not exist.
	ErrMiss = errors.New("cache miss")
	// ErrConflict is returned when a watched key changed before the write.
	ErrConflict = errors.New("cache key modified concurrently")
)

// Cache wraps a Redis/Dragonfly client. Keys are namespaced with Prefix.
type Cache struct {
	Client *redis.Client
	Prefix string
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New creates a new cache client and checks it can reach the server.
func New(ctx context.Context, url, prefix string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client, Prefix: prefix}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Key joins parts with ":" under the cache prefix.
func (c *Cache) Key(parts ...string) string {
	if c.Prefix == "" {
		return strings.Join(parts, ":")
	}
	return c.Prefix + ":" + strings.Join(parts, ":")
}

// GetJSON decodes the value stored at key into dst.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) error {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// AddJSON stores v at key only if the key does not exist yet. It reports
// whether the value was written.
func (c *Cache) AddJSON(ctx context.Context, key string, v any, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}
	ok, err := c.Client.SetNX(ctx, key, raw, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

// SwapJSON replaces the value at key inside a WATCH transaction and
// refreshes its TTL. check sees the stored bytes and vetoes the write by
// returning an error, which SwapJSON returns unchanged. It returns ErrMiss
// when the key does not exist and ErrConflict when another client wrote
// the key between the read and the write.
func (c *Cache) SwapJSON(ctx context.Context, key string, v any, ttl time.Duration, check func(current []byte) error) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		if err := check(current); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

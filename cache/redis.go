package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "serverpe:"

// ErrCorrupt marks a cached value that no longer decodes into the caller's
// type.
var ErrCorrupt = errors.New("cache entry corrupt")

// Cache is a JSON cache over redis. It only ever holds copies of backend
// data; a miss or an error means "ask the backend".
type Cache struct {
	client *redis.Client
}

func NewCache(redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// GetJSON decodes the value under key into dest and reports whether it was
// present.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w: %v", key, ErrCorrupt, err)
	}
	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, Key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete drops key. A missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, Key(key)).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Client exposes the connection for the rate limiter.
func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Key namespaces key for this service.
func Key(key string) string {
	return keyPrefix + key
}

package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bsm/redislock"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// redisCache implements CacheInterface
type redisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache implementation
func NewRedisCache(client *redis.Client) CacheInterface {
	return &redisCache{
		client: client,
	}
}

// Get retrieves a value from cache
func (c *redisCache) Get(ctx context.Context, key string, value interface{}) error {
	result, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(result, value)
}

// Set stores a value in cache
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a value from cache
func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// DeletePattern removes all keys matching a pattern. SCAN keeps large keyspaces
// from blocking the server.
func (c *redisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}

	return nil
}

// DistributedLocker grants short-lived exclusive leases across replicas
type DistributedLocker interface {
	// TryLock returns obtained=false without error when another holder owns the key
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, obtained bool, err error)
}

// redisLocker implements DistributedLocker on top of redislock
type redisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates a Redis-backed distributed locker
func NewRedisLocker(client *redis.Client) DistributedLocker {
	return &redisLocker{
		client: redislock.New(client),
	}
}

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to obtain lock %s", key)
	}
	return lock.Release, true, nil
}

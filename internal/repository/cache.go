package repository

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/avicola-track/farm-service/internal/service"
)

// ErrCacheMiss is returned by Get for absent or expired keys
var ErrCacheMiss = errors.New("key not found")

// memoryCache is an in-process cache used when no Redis is configured.
// It is not shared between replicas.
type memoryCache struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
	now  func() time.Time
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() service.CacheInterface {
	return &memoryCache{
		data: make(map[string]cacheEntry),
		now:  time.Now,
	}
}

// Get retrieves a value from cache
func (c *memoryCache) Get(ctx context.Context, key string, value interface{}) error {
	c.mu.RLock()
	entry, exists := c.data[key]
	c.mu.RUnlock()

	if !exists {
		return ErrCacheMiss
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return ErrCacheMiss
	}

	if v, ok := value.(*[]byte); ok {
		*v = append([]byte(nil), entry.value...)
		return nil
	}
	return errors.Wrap(json.Unmarshal(entry.value, value), "failed to unmarshal cache value")
}

// Set stores a value in cache with TTL
func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var data []byte
	if v, ok := value.([]byte); ok {
		data = append([]byte(nil), v...)
	} else {
		var err error
		data, err = json.Marshal(value)
		if err != nil {
			return errors.Wrap(err, "failed to marshal cache value")
		}
	}

	c.mu.Lock()
	c.data[key] = cacheEntry{value: data, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes a value from cache
func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

// DeletePattern removes all keys matching a glob pattern such as "farm:item:*"
func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return errors.Wrapf(err, "invalid cache pattern %q", pattern)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.data, key)
		}
	}
	return nil
}

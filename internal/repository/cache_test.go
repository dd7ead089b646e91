package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	t.Run("Set and Get struct", func(t *testing.T) {
		type summary struct {
			ID    string
			Stock string
		}
		value := summary{ID: "123", Stock: "42.5"}

		require.NoError(t, cache.Set(ctx, "farm:item:123:summary", value, time.Hour))

		var result summary
		require.NoError(t, cache.Get(ctx, "farm:item:123:summary", &result))
		assert.Equal(t, value, result)
	})

	t.Run("Set and Get bytes", func(t *testing.T) {
		value := []byte("raw data")
		require.NoError(t, cache.Set(ctx, "bytes", value, time.Hour))

		var result []byte
		require.NoError(t, cache.Get(ctx, "bytes", &result))
		assert.Equal(t, value, result)
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		var result string
		err := cache.Get(ctx, "non_existent", &result)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("Get with wrong type", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "string_key", "value", time.Hour))

		var result int
		assert.Error(t, cache.Get(ctx, "string_key", &result))
	})

	t.Run("Delete key", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "to_delete", "value", time.Hour))
		require.NoError(t, cache.Delete(ctx, "to_delete"))

		var result string
		assert.ErrorIs(t, cache.Get(ctx, "to_delete", &result), ErrCacheMiss)
	})
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	cache := &memoryCache{data: make(map[string]cacheEntry), now: func() time.Time { return now }}

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))

	var result string
	require.NoError(t, cache.Get(ctx, "key", &result))

	now = now.Add(time.Minute)
	assert.ErrorIs(t, cache.Get(ctx, "key", &result), ErrCacheMiss)
	assert.Empty(t, cache.data)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	keys := []string{
		"farm:item:a:summary",
		"farm:item:b:summary",
		"farm:flock:a:stats:7",
		"other:key",
	}
	for _, key := range keys {
		require.NoError(t, cache.Set(ctx, key, "v", time.Hour))
	}

	require.NoError(t, cache.DeletePattern(ctx, "farm:item:a:*"))

	var v string
	assert.ErrorIs(t, cache.Get(ctx, "farm:item:a:summary", &v), ErrCacheMiss)
	assert.NoError(t, cache.Get(ctx, "farm:item:b:summary", &v))

	require.NoError(t, cache.DeletePattern(ctx, "farm:*"))
	assert.ErrorIs(t, cache.Get(ctx, "farm:item:b:summary", &v), ErrCacheMiss)
	assert.ErrorIs(t, cache.Get(ctx, "farm:flock:a:stats:7", &v), ErrCacheMiss)
	assert.NoError(t, cache.Get(ctx, "other:key", &v))

	assert.Error(t, cache.DeletePattern(ctx, "farm:["))
}

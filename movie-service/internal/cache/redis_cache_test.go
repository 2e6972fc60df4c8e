package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_BuildKey(t *testing.T) {
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "cinema")
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "cinema:tmdb:trending:2", c.BuildKey("tmdb", "trending", "2"))
	assert.Equal(t, "cinema:stats", c.BuildKey("stats"))
}

// Needs a running Redis; set REDIS_TEST_ADDR to enable.
func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: addr}), "test-"+uuid.NewString())
	t.Cleanup(func() { _ = c.Close() })

	key := c.BuildKey("genres")
	var got []string
	require.ErrorIs(t, c.Get(ctx, key, &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, key, []string{"Action", "Drama"}, time.Minute))
	require.NoError(t, c.Get(ctx, key, &got))
	assert.Equal(t, []string{"Action", "Drama"}, got)

	require.NoError(t, c.Delete(ctx, key))
	require.ErrorIs(t, c.Get(ctx, key, &got), ErrCacheMiss)
}

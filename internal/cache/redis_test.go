// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis creates a test Redis server using miniredis.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, newRedisCache(client, "test:", zerolog.Nop())
}

func TestNewRedisCache_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, defaultKeySpace, c.prefix)
	assert.NoError(t, c.HealthCheck(context.Background()))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRedisCache_SetGetString(t *testing.T) {
	mr, c := setupMiniRedis(t)

	c.Set("query:GetGeneralSettings", `{"generalSettings":{}}`, 5*time.Minute)

	assert.True(t, mr.Exists("test:query:GetGeneralSettings"), "keys must carry the prefix")

	val, found := c.Get("query:GetGeneralSettings")
	require.True(t, found)
	assert.Equal(t, `{"generalSettings":{}}`, val)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisCache_GetMissing(t *testing.T) {
	_, c := setupMiniRedis(t)

	val, found := c.Get("nonexistent")
	assert.False(t, found)
	assert.Nil(t, val)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestRedisCache_TTL(t *testing.T) {
	mr, c := setupMiniRedis(t)

	c.Set("ttl-key", "value", time.Second)
	mr.FastForward(2 * time.Second)

	_, found := c.Get("ttl-key")
	assert.False(t, found, "expected value to expire")
}

func TestRedisCache_Delete(t *testing.T) {
	_, c := setupMiniRedis(t)

	c.Set("k", "v", time.Minute)
	c.Delete("k")

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestRedisCache_ClearOnlyOwnNamespace(t *testing.T) {
	mr, c := setupMiniRedis(t)

	require.NoError(t, mr.Set("other:key", "keep"))
	c.Set("a", "1", time.Minute)
	c.Set("b", "2", time.Minute)

	c.Clear()

	assert.Equal(t, 0, c.Stats().CurrentSize)
	assert.True(t, mr.Exists("other:key"), "foreign keys must survive Clear")
}

func TestRedisCache_ComplexData(t *testing.T) {
	_, c := setupMiniRedis(t)

	c.Set("obj", map[string]any{"displayName": "Acme", "errorReportingConsent": true}, time.Minute)

	val, found := c.Get("obj")
	require.True(t, found)
	m, ok := val.(map[string]any)
	require.True(t, ok, "objects decode as map[string]any, got %T", val)
	assert.Equal(t, "Acme", m["displayName"])
	assert.Equal(t, true, m["errorReportingConsent"])
}

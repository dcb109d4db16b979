package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthService(t *testing.T) {
	env := setupServices(t, true)
	ctx := context.Background()
	hs := env.sm.HealthService

	server := hs.GetServerHealthStatus()
	assert.True(t, server.ServiceAlive)
	require.NotNil(t, server.RamStats)

	db, err := hs.GetDatabaseHealthStatus(ctx)
	require.NoError(t, err)
	assert.True(t, db.Connected)
	assert.Equal(t, "database", db.Name)

	cache, err := hs.GetCacheHealthStatus(ctx)
	require.NoError(t, err)
	assert.True(t, cache.Enabled)
	assert.True(t, cache.Connected)

	env.redis.Close()
	cache, err = hs.GetCacheHealthStatus(ctx)
	assert.Error(t, err)
	assert.False(t, cache.Connected)
	assert.NotEmpty(t, cache.Error)
}

func TestHealthServiceWithoutCache(t *testing.T) {
	env := setupServices(t, false)

	cache, err := env.sm.HealthService.GetCacheHealthStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, cache.Enabled)
	assert.True(t, cache.Connected)
}

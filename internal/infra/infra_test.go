package infra

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalbank/backoffice/internal/config"
)

func TestNewStoreMemoryAndFile(t *testing.T) {
	ctx := context.Background()

	store, pool, err := NewStore(ctx, config.Config{StoreDriver: config.DriverMemory})
	require.NoError(t, err)
	assert.Nil(t, pool)
	assert.NoError(t, store.Ping(ctx))

	store, pool, err = NewStore(ctx, config.Config{StoreDriver: config.DriverFile, DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.Nil(t, pool)
	assert.NoError(t, store.Close())

	_, _, err = NewStore(ctx, config.Config{StoreDriver: "tape"})
	assert.Error(t, err)
}

func TestNewPostgresPoolRequiresURL(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()

	client, err := NewRedisClient(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, client)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err = NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(ctx).Err())

	_, err = NewRedisClient(ctx, "not a url")
	assert.Error(t, err)
}

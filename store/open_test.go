package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/ragagents/config"
	ragstore "github.com/smallnest/ragagents/rag/store"
	"github.com/smallnest/ragagents/store/redis"
	"github.com/smallnest/ragagents/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := OpenBackend(ctx, config.Store{Backend: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &ragstore.MemoryBackend{}, b)
	})

	t.Run("sqlite", func(t *testing.T) {
		b, err := OpenBackend(ctx, config.Store{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "v.db")})
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &sqlite.SqliteBackend{}, b)
	})

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		b, err := OpenBackend(ctx, config.Store{Backend: "redis", RedisAddr: mr.Addr(), RedisPrefix: "rag"})
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &redis.RedisBackend{}, b)

		require.NoError(t, b.CreateCollection(ctx, "x", ragstore.CollectionConfig{Size: 1, Distance: ragstore.Cosine}))
		assert.True(t, mr.Exists("rag:collection:x"))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := OpenBackend(ctx, config.Store{Backend: "qdrant"})
		assert.Error(t, err)
	})
}

func TestOpen(t *testing.T) {
	c, err := Open(context.Background(), config.Store{Backend: "memory"}, nil)
	require.NoError(t, err)
	require.NoError(t, c.CreateCollection(context.Background(), "docs", ragstore.CollectionConfig{Size: 2}))
	ok, err := c.CollectionExists(context.Background(), "docs")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaultBackendPersistsCollections(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default().Store
	cfg.SQLitePath = filepath.Join(t.TempDir(), "collections.db")

	c, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, c.CreateCollection(ctx, "talks", ragstore.CollectionConfig{Size: 2, Distance: ragstore.Cosine}))
	require.NoError(t, c.Close())

	reopened, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer reopened.Close()
	ok, err := reopened.CollectionExists(ctx, "talks")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenBackendRequiresName(t *testing.T) {
	_, err := OpenBackend(context.Background(), config.Store{})
	assert.Error(t, err)
}

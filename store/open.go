package store

import (
	"context"
	"fmt"

	"github.com/smallnest/ragagents/config"
	"github.com/smallnest/ragagents/log"
	ragstore "github.com/smallnest/ragagents/rag/store"
	"github.com/smallnest/ragagents/store/postgres"
	"github.com/smallnest/ragagents/store/redis"
	"github.com/smallnest/ragagents/store/sqlite"
)

// OpenBackend builds the backend named by cfg.Backend
func OpenBackend(ctx context.Context, cfg config.Store) (ragstore.Backend, error) {
	switch cfg.Backend {
	case "memory":
		return ragstore.NewMemoryBackend(), nil
	case "sqlite":
		return sqlite.NewSqliteBackend(sqlite.SqliteOptions{Path: cfg.SQLitePath})
	case "redis":
		return redis.NewRedisBackend(redis.RedisOptions{Addr: cfg.RedisAddr, Prefix: redisPrefix(cfg.RedisPrefix)}), nil
	case "postgres":
		return postgres.NewPostgresBackend(ctx, postgres.PostgresOptions{ConnString: cfg.PostgresURL})
	}
	return nil, fmt.Errorf("unknown vector backend %q", cfg.Backend)
}

// Open builds the configured backend and wraps it in a collection client
func Open(ctx context.Context, cfg config.Store, logger log.Logger) (*ragstore.Client, error) {
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	log.OrNoOp(logger).Debug("opened %s vector backend", cfg.Backend)
	return ragstore.NewClient(backend, ragstore.WithLogger(logger)), nil
}

func redisPrefix(p string) string {
	if p == "" {
		return ""
	}
	return p + ":"
}

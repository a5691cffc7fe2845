package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/ragagents/rag/store"
)

// RedisBackend implements store.Backend using Redis
type RedisBackend struct {
	client *redis.Client
	prefix string
}

var _ store.Backend = (*RedisBackend)(nil)

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // Key prefix, default "ragagents:"
}

// NewRedisBackend creates a new Redis backend
func NewRedisBackend(opts RedisOptions) *RedisBackend {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "ragagents:"
	}

	return &RedisBackend{
		client: client,
		prefix: prefix,
	}
}

func (b *RedisBackend) collectionKey(name string) string {
	return fmt.Sprintf("%scollection:%s", b.prefix, name)
}

func (b *RedisBackend) pointsKey(name string) string {
	return fmt.Sprintf("%scollection:%s:points", b.prefix, name)
}

// CollectionInfo returns the config of a collection
func (b *RedisBackend) CollectionInfo(ctx context.Context, name string) (store.CollectionConfig, bool, error) {
	fields, err := b.client.HGetAll(ctx, b.collectionKey(name)).Result()
	if err != nil {
		return store.CollectionConfig{}, false, fmt.Errorf("failed to load collection from redis: %w", err)
	}
	if len(fields) == 0 {
		return store.CollectionConfig{}, false, nil
	}
	size, err := strconv.Atoi(fields["size"])
	if err != nil {
		return store.CollectionConfig{}, false, fmt.Errorf("invalid size for collection %s: %w", name, err)
	}
	return store.CollectionConfig{Size: size, Distance: store.Distance(fields["distance"])}, true, nil
}

// CreateCollection stores the collection config
func (b *RedisBackend) CreateCollection(ctx context.Context, name string, cfg store.CollectionConfig) error {
	created, err := b.client.HSetNX(ctx, b.collectionKey(name), "size", cfg.Size).Result()
	if err != nil {
		return fmt.Errorf("failed to save collection to redis: %w", err)
	}
	if !created {
		return store.ErrCollectionExists
	}
	if err := b.client.HSet(ctx, b.collectionKey(name), "distance", string(cfg.Distance)).Err(); err != nil {
		return fmt.Errorf("failed to save collection to redis: %w", err)
	}
	return nil
}

// DeleteCollection removes the config and point hashes
func (b *RedisBackend) DeleteCollection(ctx context.Context, name string) (bool, error) {
	pipe := b.client.TxPipeline()
	del := pipe.Del(ctx, b.collectionKey(name))
	pipe.Del(ctx, b.pointsKey(name))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to delete collection from redis: %w", err)
	}
	return del.Val() > 0, nil
}

// Upsert writes points into the collection hash
func (b *RedisBackend) Upsert(ctx context.Context, name string, points []store.Point) error {
	if len(points) == 0 {
		return nil
	}
	values := make([]any, 0, len(points)*2)
	for _, p := range points {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal point: %w", err)
		}
		values = append(values, p.ID, data)
	}
	if err := b.client.HSet(ctx, b.pointsKey(name), values...).Err(); err != nil {
		return fmt.Errorf("failed to save points to redis: %w", err)
	}
	return nil
}

// Points returns all points of a collection ordered by id
func (b *RedisBackend) Points(ctx context.Context, name string) ([]store.Point, error) {
	raw, err := b.client.HGetAll(ctx, b.pointsKey(name)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to list points from redis: %w", err)
	}

	points := make([]store.Point, 0, len(raw))
	for _, data := range raw {
		var p store.Point
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal point: %w", err)
		}
		points = append(points, p)
	}
	slices.SortFunc(points, func(a, b store.Point) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return points, nil
}

// Close closes the redis client
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

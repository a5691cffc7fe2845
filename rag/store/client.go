package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/smallnest/ragagents/log"
)

// Client manages collections on top of a Backend
type Client struct {
	backend Backend
	logger  log.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLogger sets the logger of a Client
func WithLogger(logger log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client over the given backend
func NewClient(backend Backend, opts ...ClientOption) *Client {
	c := &Client{backend: backend, logger: log.NoOp()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.OrNoOp(c.logger)
	return c
}

// NewMemoryClient creates a Client over a fresh MemoryBackend
func NewMemoryClient(opts ...ClientOption) *Client {
	return NewClient(NewMemoryBackend(), opts...)
}

// CollectionExists reports whether a collection exists
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, ok, err := c.backend.CollectionInfo(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to get collection %s: %w", name, err)
	}
	return ok, nil
}

// CreateCollection creates a collection; it fails if the collection exists
func (c *Client) CreateCollection(ctx context.Context, name string, cfg CollectionConfig) error {
	if cfg.Size <= 0 {
		return fmt.Errorf("collection %s: vector size must be positive, got %d", name, cfg.Size)
	}
	if cfg.Distance == "" {
		cfg.Distance = Cosine
	}
	exists, err := c.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}
	if err := c.backend.CreateCollection(ctx, name, cfg); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	c.logger.Info("created collection %s (size=%d, distance=%s)", name, cfg.Size, cfg.Distance)
	return nil
}

// RecreateCollection deletes a collection if present and creates it again
func (c *Client) RecreateCollection(ctx context.Context, name string, cfg CollectionConfig) error {
	if _, err := c.DeleteCollection(ctx, name); err != nil {
		return err
	}
	return c.CreateCollection(ctx, name, cfg)
}

// DeleteCollection deletes a collection and reports whether it existed
func (c *Client) DeleteCollection(ctx context.Context, name string) (bool, error) {
	ok, err := c.backend.DeleteCollection(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	if ok {
		c.logger.Info("deleted collection %s", name)
	}
	return ok, nil
}

// Upsert stores points in a collection. Points without an id get a random uuid.
func (c *Client) Upsert(ctx context.Context, name string, points []Point) error {
	cfg, err := c.config(ctx, name)
	if err != nil {
		return err
	}
	batch := make([]Point, len(points))
	for i, p := range points {
		if len(p.Vector) != cfg.Size {
			return fmt.Errorf("%w: point %q has %d values, collection %s expects %d",
				ErrDimensionMismatch, p.ID, len(p.Vector), name, cfg.Size)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		batch[i] = p
	}
	if err := c.backend.Upsert(ctx, name, batch); err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", name, err)
	}
	c.logger.Debug("upserted %d points into %s", len(batch), name)
	return nil
}

// Count returns the number of points in a collection
func (c *Client) Count(ctx context.Context, name string) (int, error) {
	if _, err := c.config(ctx, name); err != nil {
		return 0, err
	}
	points, err := c.backend.Points(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return len(points), nil
}

// Search returns at most limit points ordered by descending score
func (c *Client) Search(ctx context.Context, name string, query []float32, limit int) ([]ScoredPoint, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	scored, err := c.score(ctx, name, query)
	if err != nil {
		return nil, err
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// SearchGroups groups hits by the payload field q.GroupBy. At most q.Limit
// groups are returned, ordered by their best hit, each holding its best
// q.GroupSize hits. Points without the field are skipped.
func (c *Client) SearchGroups(ctx context.Context, name string, query []float32, q GroupQuery) ([]PointGroup, error) {
	if q.GroupBy == "" {
		return nil, fmt.Errorf("group_by field is required")
	}
	if q.GroupSize <= 0 || q.Limit <= 0 {
		return nil, fmt.Errorf("group size and limit must be positive")
	}
	scored, err := c.score(ctx, name, query)
	if err != nil {
		return nil, err
	}

	var groups []PointGroup
	index := make(map[string]int)
	for _, hit := range scored {
		key, ok := hit.Payload[q.GroupBy]
		if !ok || key == nil {
			continue
		}
		k := fmt.Sprint(key)
		i, seen := index[k]
		if !seen {
			if len(groups) == q.Limit {
				continue
			}
			i = len(groups)
			index[k] = i
			groups = append(groups, PointGroup{Key: key})
		}
		if len(groups[i].Hits) < q.GroupSize {
			groups[i].Hits = append(groups[i].Hits, hit)
		}
	}
	c.logger.Debug("grouped search on %s by %s returned %d groups", name, q.GroupBy, len(groups))
	return groups, nil
}

// Close closes the underlying backend
func (c *Client) Close() error {
	return c.backend.Close()
}

func (c *Client) config(ctx context.Context, name string) (CollectionConfig, error) {
	cfg, ok, err := c.backend.CollectionInfo(ctx, name)
	if err != nil {
		return CollectionConfig{}, fmt.Errorf("failed to get collection %s: %w", name, err)
	}
	if !ok {
		return CollectionConfig{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return cfg, nil
}

// score returns every point of a collection scored against query, best first.
// Ties are broken by point id.
func (c *Client) score(ctx context.Context, name string, query []float32) ([]ScoredPoint, error) {
	cfg, err := c.config(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(query) != cfg.Size {
		return nil, fmt.Errorf("%w: query has %d values, collection %s expects %d",
			ErrDimensionMismatch, len(query), name, cfg.Size)
	}
	points, err := c.backend.Points(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	scored := make([]ScoredPoint, len(points))
	for i, p := range points {
		scored[i] = ScoredPoint{ID: p.ID, Score: cfg.Distance.score(query, p.Vector), Payload: p.Payload}
	}
	slices.SortFunc(scored, func(a, b ScoredPoint) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return scored, nil
}

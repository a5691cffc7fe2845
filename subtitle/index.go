package subtitle

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/smallnest/ragagents/log"
	"github.com/smallnest/ragagents/rag"
	"github.com/smallnest/ragagents/rag/store"
)

const (
	// GroupKey is the payload field search results are grouped by
	GroupKey = "file_name"
	// DefaultGroupSize is the number of hits kept per file
	DefaultGroupSize = 1
	// DefaultLimit is the number of files returned by a search
	DefaultLimit = 3
)

// Hit is the best matching chunk of one subtitle file
type Hit struct {
	FileName string
	Score    float64
	Start    int
	End      int
	VideoID  string
	Text     string
}

// URL links to the hit's time range on YouTube
func (h Hit) URL() string {
	return WatchURL(h.VideoID, h.Start, h.End)
}

// IndexOption configures an Index
type IndexOption func(*Index)

// WithGrouping overrides the group size and group limit used by Search.
func WithGrouping(size, limit int) IndexOption {
	return func(i *Index) {
		if size > 0 {
			i.groupSize = size
		}
		if limit > 0 {
			i.limit = limit
		}
	}
}

// WithIndexLogger sets the logger
func WithIndexLogger(logger log.Logger) IndexOption {
	return func(i *Index) {
		i.logger = log.OrNoOp(logger)
	}
}

// Index stores subtitle chunks as vectors and searches them
type Index struct {
	embedder  rag.Embedder
	client    *store.Client
	groupSize int
	limit     int
	logger    log.Logger
}

// NewIndex creates an index over the given embedder and collection client.
func NewIndex(embedder rag.Embedder, client *store.Client, opts ...IndexOption) *Index {
	i := &Index{
		embedder:  embedder,
		client:    client,
		groupSize: DefaultGroupSize,
		limit:     DefaultLimit,
		logger:    log.NoOp(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Store replaces the collection with one point per chunk.
func (i *Index) Store(ctx context.Context, collection string, chunks map[string][]Chunk) error {
	deleted, err := i.client.DeleteCollection(ctx, collection)
	if err != nil {
		return err
	}
	if deleted {
		i.logger.Info("removed existing collection %s", collection)
	}

	if err := i.client.CreateCollection(ctx, collection, store.CollectionConfig{
		Size:     i.embedder.GetDimension(),
		Distance: store.Cosine,
	}); err != nil {
		return err
	}
	i.logger.Info("created collection %s", collection)

	for _, name := range sortedKeys(chunks) {
		fileChunks := chunks[name]
		if len(fileChunks) == 0 {
			continue
		}
		texts := make([]string, len(fileChunks))
		for j, c := range fileChunks {
			texts[j] = c.Text
		}
		vectors, err := i.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks of %s: %w", name, err)
		}
		if len(vectors) != len(fileChunks) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(fileChunks))
		}

		points := make([]store.Point, len(fileChunks))
		for j, c := range fileChunks {
			id, err := uuid.NewUUID()
			if err != nil {
				return fmt.Errorf("failed to generate point id: %w", err)
			}
			points[j] = store.Point{
				ID:     id.String(),
				Vector: vectors[j],
				Payload: map[string]any{
					"file_name": c.FileName,
					"start":     c.Start,
					"end":       c.End,
					"video_id":  c.VideoID,
					"text":      c.Text,
					"language":  c.Language,
				},
			}
		}
		if err := i.client.Upsert(ctx, collection, points); err != nil {
			return err
		}
		i.logger.Debug("stored %d chunks of %s", len(points), name)
	}
	return nil
}

// Search returns the best hit per file, at most limit files.
func (i *Index) Search(ctx context.Context, collection, query string) ([]Hit, error) {
	if query == "" {
		return nil, errors.New("empty query")
	}
	vector, err := i.embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	groups, err := i.client.SearchGroups(ctx, collection, vector, store.GroupQuery{
		GroupBy:   GroupKey,
		GroupSize: i.groupSize,
		Limit:     i.limit,
	})
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, g := range groups {
		for _, p := range g.Hits {
			hits = append(hits, hitFromPayload(p))
		}
	}
	i.logger.Debug("search %q in %s returned %d hits", query, collection, len(hits))
	return hits, nil
}

func hitFromPayload(p store.ScoredPoint) Hit {
	return Hit{
		FileName: stringField(p.Payload, "file_name"),
		Score:    p.Score,
		Start:    intField(p.Payload, "start"),
		End:      intField(p.Payload, "end"),
		VideoID:  stringField(p.Payload, "video_id"),
		Text:     stringField(p.Payload, "text"),
	}
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

// intField accepts the numeric types payloads come back with from the
// different backends.
func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(math.Round(v))
	case float32:
		return int(math.Round(float64(v)))
	}
	return 0
}

// Package store implements named vector collections with similarity and
// grouped search over pluggable persistence backends, plus an in-memory
// sparse vector index.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCollectionNotFound is returned when a named collection does not exist
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionExists is returned when creating a collection that already exists
	ErrCollectionExists = errors.New("collection already exists")
	// ErrDimensionMismatch is returned when a vector length differs from the collection size
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Distance is the similarity metric of a collection
type Distance string

const (
	// Cosine scores by cosine similarity
	Cosine Distance = "cosine"
	// Dot scores by dot product
	Dot Distance = "dot"
	// Euclid scores by negated euclidean distance
	Euclid Distance = "euclid"
)

// ParseDistance converts a distance name to a Distance.
func ParseDistance(s string) (Distance, error) {
	switch d := Distance(strings.ToLower(s)); d {
	case Cosine, Dot, Euclid:
		return d, nil
	}
	return "", fmt.Errorf("unknown distance %q", s)
}

// CollectionConfig describes the vectors stored in a collection
type CollectionConfig struct {
	Size     int
	Distance Distance
}

// Point is a dense vector with an id and a payload
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ScoredPoint is a search hit; higher scores are better
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// PointGroup holds the best hits sharing one payload value
type PointGroup struct {
	Key  any
	Hits []ScoredPoint
}

// GroupQuery configures a grouped search
type GroupQuery struct {
	GroupBy   string
	GroupSize int
	Limit     int
}

// Backend persists collections and their points. Validation, scoring and
// grouping are done by Client, so a backend only stores and returns data.
type Backend interface {
	// CollectionInfo returns the config of a collection and whether it exists
	CollectionInfo(ctx context.Context, name string) (CollectionConfig, bool, error)
	CreateCollection(ctx context.Context, name string, cfg CollectionConfig) error
	// DeleteCollection removes a collection and its points, reporting whether it existed
	DeleteCollection(ctx context.Context, name string) (bool, error)
	// Upsert inserts points or replaces points with the same id
	Upsert(ctx context.Context, name string, points []Point) error
	Points(ctx context.Context, name string) ([]Point, error)
	Close() error
}

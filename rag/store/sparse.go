package store

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// SparseVector stores only the non-zero entries of a vector
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// Validate checks that indices and values line up and indices are unique
func (v SparseVector) Validate() error {
	if len(v.Indices) != len(v.Values) {
		return fmt.Errorf("sparse vector has %d indices and %d values", len(v.Indices), len(v.Values))
	}
	seen := make(map[uint32]struct{}, len(v.Indices))
	for _, idx := range v.Indices {
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("sparse vector has duplicate index %d", idx)
		}
		seen[idx] = struct{}{}
	}
	return nil
}

// SparsePoint is a point with one or more named sparse vectors
type SparsePoint struct {
	ID      string
	Vectors map[string]SparseVector
	Payload map[string]any
}

type sparseEntry struct {
	payload map[string]any
	vectors map[string]map[uint32]float32
}

type sparseCollection struct {
	vectorNames map[string]struct{}
	points      map[string]*sparseEntry
}

// SparseIndex is an in-memory store of named sparse vectors scored by dot product
type SparseIndex struct {
	mu          sync.RWMutex
	collections map[string]*sparseCollection
}

// NewSparseIndex creates an empty SparseIndex
func NewSparseIndex() *SparseIndex {
	return &SparseIndex{collections: make(map[string]*sparseCollection)}
}

// CreateCollection creates a collection holding the given sparse vector names
func (s *SparseIndex) CreateCollection(name string, vectorNames ...string) error {
	if len(vectorNames) == 0 {
		return fmt.Errorf("collection %s: at least one sparse vector name is required", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}
	c := &sparseCollection{vectorNames: make(map[string]struct{}), points: make(map[string]*sparseEntry)}
	for _, n := range vectorNames {
		c.vectorNames[n] = struct{}{}
	}
	s.collections[name] = c
	return nil
}

// DeleteCollection removes a collection and reports whether it existed
func (s *SparseIndex) DeleteCollection(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.collections[name]
	delete(s.collections, name)
	return ok
}

// CollectionExists reports whether a collection exists
func (s *SparseIndex) CollectionExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok
}

// Count returns the number of points in a collection
func (s *SparseIndex) Count(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return len(c.points), nil
}

// Upsert inserts points or replaces points with the same id
func (s *SparseIndex) Upsert(name string, points ...SparsePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	for _, p := range points {
		if p.ID == "" {
			return fmt.Errorf("sparse point id is required")
		}
		entry := &sparseEntry{payload: maps.Clone(p.Payload), vectors: make(map[string]map[uint32]float32)}
		for vn, v := range p.Vectors {
			if _, known := c.vectorNames[vn]; !known {
				return fmt.Errorf("collection %s has no sparse vector %q", name, vn)
			}
			if err := v.Validate(); err != nil {
				return fmt.Errorf("point %s: %w", p.ID, err)
			}
			m := make(map[uint32]float32, len(v.Indices))
			for i, idx := range v.Indices {
				m[idx] = v.Values[i]
			}
			entry.vectors[vn] = m
		}
		c.points[p.ID] = entry
	}
	return nil
}

// Search scores every point by the dot product of its vectorName vector with
// query over shared indices. Points sharing no index with query are not
// returned. Results are ordered by descending score, ties by id.
func (s *SparseIndex) Search(name, vectorName string, query SparseVector, limit int) ([]ScoredPoint, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if _, known := c.vectorNames[vectorName]; !known {
		return nil, fmt.Errorf("collection %s has no sparse vector %q", name, vectorName)
	}

	var hits []ScoredPoint
	for id, entry := range c.points {
		v := entry.vectors[vectorName]
		var score float64
		overlap := false
		for i, idx := range query.Indices {
			if val, ok := v[idx]; ok {
				overlap = true
				score += float64(val) * float64(query.Values[i])
			}
		}
		if !overlap {
			continue
		}
		hits = append(hits, ScoredPoint{ID: id, Score: score, Payload: maps.Clone(entry.payload)})
	}

	slices.SortFunc(hits, func(a, b ScoredPoint) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

package store

import (
	"context"
	"maps"
	"sync"
)

type memoryCollection struct {
	config CollectionConfig
	ids    []string
	points map[string]Point
}

// MemoryBackend is an in-memory Backend. It is safe for concurrent use.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty MemoryBackend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: make(map[string]*memoryCollection)}
}

// CollectionInfo returns the config of a collection
func (m *MemoryBackend) CollectionInfo(ctx context.Context, name string) (CollectionConfig, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return CollectionConfig{}, false, nil
	}
	return c.config, true, nil
}

// CreateCollection registers a new empty collection
func (m *MemoryBackend) CreateCollection(ctx context.Context, name string, cfg CollectionConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return ErrCollectionExists
	}
	m.collections[name] = &memoryCollection{config: cfg, points: make(map[string]Point)}
	return nil
}

// DeleteCollection drops a collection
func (m *MemoryBackend) DeleteCollection(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.collections[name]
	delete(m.collections, name)
	return ok, nil
}

// Upsert stores copies of the given points
func (m *MemoryBackend) Upsert(ctx context.Context, name string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		return ErrCollectionNotFound
	}
	for _, p := range points {
		if _, exists := c.points[p.ID]; !exists {
			c.ids = append(c.ids, p.ID)
		}
		c.points[p.ID] = copyPoint(p)
	}
	return nil
}

// Points returns the points of a collection in insertion order
func (m *MemoryBackend) Points(ctx context.Context, name string) ([]Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	out := make([]Point, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, copyPoint(c.points[id]))
	}
	return out, nil
}

// Close clears all collections
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]*memoryCollection)
	return nil
}

func copyPoint(p Point) Point {
	out := Point{ID: p.ID, Vector: append([]float32(nil), p.Vector...)}
	if p.Payload != nil {
		out.Payload = maps.Clone(p.Payload)
	}
	return out
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/smallnest/ragagents/rag/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *SqliteBackend {
	t.Helper()
	b, err := NewSqliteBackend(SqliteOptions{Path: filepath.Join(t.TempDir(), "vectors.db")})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSqliteBackend(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	_, ok, err := b.CollectionInfo(ctx, "lex")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.CreateCollection(ctx, "lex", store.CollectionConfig{Size: 2, Distance: store.Cosine}))
	cfg, ok, err := b.CollectionInfo(ctx, "lex")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, store.CollectionConfig{Size: 2, Distance: store.Cosine}, cfg)

	require.NoError(t, b.Upsert(ctx, "lex", []store.Point{
		{ID: "p1", Vector: []float32{1, 0}, Payload: map[string]any{"file_name": "ep1", "start": 30}},
		{ID: "p2", Vector: []float32{0, 1}},
	}))
	require.NoError(t, b.Upsert(ctx, "lex", []store.Point{
		{ID: "p1", Vector: []float32{0.5, 0.5}, Payload: map[string]any{"file_name": "ep1b"}},
	}))

	points, err := b.Points(ctx, "lex")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "p1", points[0].ID)
	assert.Equal(t, []float32{0.5, 0.5}, points[0].Vector)
	assert.Equal(t, "ep1b", points[0].Payload["file_name"])
	assert.Nil(t, points[1].Payload)

	deleted, err := b.DeleteCollection(ctx, "lex")
	require.NoError(t, err)
	assert.True(t, deleted)
	points, err = b.Points(ctx, "lex")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestSqliteBackendWithClient(t *testing.T) {
	ctx := context.Background()
	c := store.NewClient(newTestBackend(t))

	require.NoError(t, c.CreateCollection(ctx, "subs", store.CollectionConfig{Size: 2}))
	require.NoError(t, c.Upsert(ctx, "subs", []store.Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"file_name": "A", "start": 0}},
		{ID: "b", Vector: []float32{0, 1}, Payload: map[string]any{"file_name": "B", "start": 30}},
	}))

	groups, err := c.SearchGroups(ctx, "subs", []float32{1, 0.1}, store.GroupQuery{GroupBy: "file_name", GroupSize: 1, Limit: 3})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].Key)
	// JSON round trip turns numbers into float64
	assert.Equal(t, float64(0), groups[0].Hits[0].Payload["start"])
}

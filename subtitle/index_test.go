package subtitle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragagents/rag/embedder"
	"github.com/smallnest/ragagents/rag/store"
)

func testChunks() map[string][]Chunk {
	return map[string][]Chunk{
		"Rust Talk": {
			{FileName: "Rust Talk", Start: 0, End: 30, Text: "the rust borrow checker explained", VideoID: "r1"},
			{FileName: "Rust Talk", Start: 30, End: 62, Text: "lifetimes and ownership", VideoID: "r1"},
		},
		"Cooking": {
			{FileName: "Cooking", Start: 0, End: 31, Text: "pasta with garlic and olive oil", VideoID: "c1"},
		},
	}
}

func TestIndexStoreAndSearch(t *testing.T) {
	ctx := context.Background()
	client := store.NewMemoryClient()
	idx := NewIndex(embedder.NewHash(1024), client)

	require.NoError(t, idx.Store(ctx, "talks", testChunks()))
	n, err := client.Count(ctx, "talks")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := idx.Search(ctx, "talks", "rust borrow checker")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Rust Talk", hits[0].FileName)
	assert.Equal(t, 0, hits[0].Start)
	assert.Equal(t, 30, hits[0].End)
	assert.Equal(t, "https://www.youtube.com/watch?v=r1&start=0&end=30", hits[0].URL())
	assert.Greater(t, hits[0].Score, hits[1].Score)

	// storing again replaces the collection
	require.NoError(t, idx.Store(ctx, "talks", map[string][]Chunk{"Cooking": testChunks()["Cooking"]}))
	n, err = client.Count(ctx, "talks")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = idx.Search(ctx, "talks", "")
	assert.Error(t, err)
	_, err = idx.Search(ctx, "missing", "rust")
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)
}

func TestIndexGrouping(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(embedder.NewHash(1024), store.NewMemoryClient(), WithGrouping(2, 1))
	require.NoError(t, idx.Store(ctx, "talks", testChunks()))

	hits, err := idx.Search(ctx, "talks", "rust ownership")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Rust Talk", hits[0].FileName)
	assert.Equal(t, "Rust Talk", hits[1].FileName)
}

func TestIntField(t *testing.T) {
	payload := map[string]any{"a": 3, "b": int64(4), "c": float64(5), "d": float32(6), "e": "7"}
	assert.Equal(t, 3, intField(payload, "a"))
	assert.Equal(t, 4, intField(payload, "b"))
	assert.Equal(t, 5, intField(payload, "c"))
	assert.Equal(t, 6, intField(payload, "d"))
	assert.Equal(t, 0, intField(payload, "e"))
	assert.Equal(t, 0, intField(payload, "missing"))
}

type fakeDownloader struct {
	files map[string]string
	err   error
	calls int
}

func (f *fakeDownloader) Download(ctx context.Context, url, dir string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for name, content := range f.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func TestLoaderLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	client := store.NewMemoryClient()
	dl := &fakeDownloader{files: map[string]string{"Talk One [abc123].en.vtt": englishVTT}}
	l := &Loader{
		Dir:        dir,
		Threshold:  30,
		Downloader: dl,
		Index:      NewIndex(embedder.NewHash(256), client),
	}

	stale := filepath.Join(l.SubtitlesDir("lex"), "old [zzz].en.vtt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("WEBVTT\n"), 0o644))

	require.NoError(t, l.Load(ctx, "lex", "https://youtube.com/playlist?list=x"))
	assert.NoFileExists(t, stale)
	assert.Equal(t, 1, dl.calls)

	n, err := client.Count(ctx, "lex")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoaderErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dl := &fakeDownloader{}
	l := &Loader{Dir: dir, Threshold: 30, Downloader: dl, Index: NewIndex(embedder.NewHash(8), store.NewMemoryClient())}

	assert.Error(t, l.Load(ctx, "", "url"))

	// nothing downloaded
	assert.Error(t, l.Load(ctx, "lex", "url"))

	dl.err = errors.New("network down")
	assert.ErrorContains(t, l.Load(ctx, "lex", "url"), "network down")

	lock := flock.New(filepath.Join(dir, "lex.lock"))
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer lock.Unlock()

	assert.ErrorIs(t, l.Load(ctx, "lex", "url"), ErrLoadInProgress)
}

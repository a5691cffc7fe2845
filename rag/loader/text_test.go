package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smallnest/ragagents/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextLoader(t *testing.T) {
	ctx := context.Background()
	content := "Line 1\nLine 2\nLine 3"
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test.txt")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	t.Run("Basic Load", func(t *testing.T) {
		loader := NewTextLoader(tmpFile)
		docs, err := loader.Load(ctx)
		assert.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.Equal(t, content, docs[0].Content)
		assert.Equal(t, tmpFile, docs[0].Metadata["source"])
		assert.Equal(t, "text_test.txt", docs[0].ID)
	})

	t.Run("Load with Metadata", func(t *testing.T) {
		loader := NewTextLoader(tmpFile, WithMetadata(map[string]any{"author": "test"}))
		docs, err := loader.Load(ctx)
		assert.NoError(t, err)
		assert.Equal(t, "test", docs[0].Metadata["author"])
		assert.Equal(t, "text", docs[0].Metadata["type"])
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := NewTextLoader(filepath.Join(tmpDir, "missing.txt")).Load(ctx)
		assert.Error(t, err)
	})
}

func TestPDFLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing file", func(t *testing.T) {
		_, err := NewPDFLoader(filepath.Join(t.TempDir(), "none.pdf")).Load(ctx)
		assert.ErrorContains(t, err, "failed to open file")
	})

	t.Run("Not a pdf", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fake.pdf")
		require.NoError(t, os.WriteFile(path, []byte("plain text, not a pdf"), 0o644))
		_, err := NewPDFLoader(path).LoadText(ctx)
		assert.Error(t, err)
	})

	t.Run("JoinPages", func(t *testing.T) {
		docs := []rag.Document{{Content: "Intro to RAG. "}, {Content: "Chapter 2"}}
		assert.Equal(t, "Intro to RAG. Chapter 2", JoinPages(docs))
	})
}

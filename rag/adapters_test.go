package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

type mockLCEmbedder struct {
	calls int
	err   error
}

func (m *mockLCEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	res := make([][]float32, len(texts))
	for i := range texts {
		res[i] = []float32{0.1, 0.2}
	}
	return res, nil
}

func (m *mockLCEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2}, nil
}

type mockLCLoader struct{}

func (m *mockLCLoader) Load(ctx context.Context) ([]schema.Document, error) {
	return []schema.Document{
		{PageContent: "page one", Metadata: map[string]any{"source": "book.pdf"}},
		{PageContent: "page two"},
	}, nil
}

func (m *mockLCLoader) LoadAndSplit(ctx context.Context, s textsplitter.TextSplitter) ([]schema.Document, error) {
	return m.Load(ctx)
}

func TestLangChainAdapters(t *testing.T) {
	ctx := context.Background()

	t.Run("LangChainDocumentLoader", func(t *testing.T) {
		adapter := NewLangChainDocumentLoader(&mockLCLoader{}, map[string]any{"kind": "pdf"})
		docs, err := adapter.Load(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "page one", docs[0].Content)
		assert.Equal(t, "book.pdf_0", docs[0].ID)
		assert.Equal(t, "doc_1", docs[1].ID)
		assert.Equal(t, "pdf", docs[1].Metadata["kind"])
	})

	t.Run("LangChainEmbedder", func(t *testing.T) {
		lcEmb := &mockLCEmbedder{}
		adapter := NewLangChainEmbedder(lcEmb)

		emb, err := adapter.EmbedDocument(ctx, "test")
		assert.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2}, emb)

		embs, err := adapter.EmbedDocuments(ctx, []string{"test"})
		assert.NoError(t, err)
		assert.Equal(t, [][]float32{{0.1, 0.2}}, embs)

		assert.Equal(t, 2, adapter.GetDimension())
		assert.Equal(t, 2, adapter.GetDimension())
		assert.Equal(t, 2, lcEmb.calls, "dimension is probed once")
	})

	t.Run("LangChainEmbedder errors", func(t *testing.T) {
		adapter := NewLangChainEmbedder(&mockLCEmbedder{err: errors.New("quota")})
		_, err := adapter.EmbedDocument(ctx, "x")
		assert.ErrorContains(t, err, "quota")
		assert.Zero(t, adapter.GetDimension())
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{3, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
}

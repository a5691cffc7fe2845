package rag

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
)

// LangChainDocumentLoader adapts langchaingo's documentloaders.Loader to our DocumentLoader interface
type LangChainDocumentLoader struct {
	loader   documentloaders.Loader
	metadata map[string]any
}

// NewLangChainDocumentLoader creates a new adapter for langchaingo document loaders.
// The given metadata is added to every loaded document.
func NewLangChainDocumentLoader(loader documentloaders.Loader, metadata map[string]any) *LangChainDocumentLoader {
	return &LangChainDocumentLoader{
		loader:   loader,
		metadata: metadata,
	}
}

// Load loads documents using the underlying langchaingo loader
func (l *LangChainDocumentLoader) Load(ctx context.Context) ([]Document, error) {
	schemaDocs, err := l.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	docs := convertSchemaDocuments(schemaDocs)
	for i := range docs {
		maps.Copy(docs[i].Metadata, l.metadata)
	}
	return docs, nil
}

// convertSchemaDocuments converts langchaingo schema.Document to our Document type
func convertSchemaDocuments(schemaDocs []schema.Document) []Document {
	docs := make([]Document, len(schemaDocs))
	for i, schemaDoc := range schemaDocs {
		docs[i] = Document{
			Content:  schemaDoc.PageContent,
			Metadata: maps.Clone(schemaDoc.Metadata),
		}
		if docs[i].Metadata == nil {
			docs[i].Metadata = make(map[string]any)
		}

		// Set ID if available in metadata
		if source, ok := schemaDoc.Metadata["source"]; ok {
			docs[i].ID = fmt.Sprintf("%v_%d", source, i)
		} else {
			docs[i].ID = fmt.Sprintf("doc_%d", i)
		}
	}
	return docs
}

// LangChainEmbedder adapts langchaingo's embeddings.Embedder to our Embedder interface
type LangChainEmbedder struct {
	embedder embeddings.Embedder

	dimOnce sync.Once
	dim     int
}

// NewLangChainEmbedder creates a new adapter for langchaingo embedders
func NewLangChainEmbedder(embedder embeddings.Embedder) *LangChainEmbedder {
	return &LangChainEmbedder{
		embedder: embedder,
	}
}

// EmbedDocument embeds a single document using the underlying langchaingo embedder
func (l *LangChainEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	embedding, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return embedding, nil
}

// EmbedDocuments embeds multiple documents using the underlying langchaingo embedder
func (l *LangChainEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// GetDimension returns the embedding dimension.
// LangChain embedders don't expose it, so it is discovered once by embedding a probe text.
func (l *LangChainEmbedder) GetDimension() int {
	l.dimOnce.Do(func() {
		probe, err := l.embedder.EmbedQuery(context.Background(), "dimension probe")
		if err == nil {
			l.dim = len(probe)
		}
	})
	return l.dim
}

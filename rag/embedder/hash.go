// Package embedder provides text embedders: a deterministic hashing
// embedder for tests and offline runs, an OpenAI client embedder, and
// constructors for langchaingo providers.
package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/smallnest/ragagents/rag"
)

// Hash embeds text as a normalized bag of hashed words. Texts sharing words
// get similar vectors, which is enough for tests and offline demos.
type Hash struct {
	Dimension int
}

var _ rag.Embedder = (*Hash)(nil)

// NewHash creates a Hash embedder
func NewHash(dimension int) *Hash {
	return &Hash{Dimension: dimension}
}

// EmbedDocument generates an embedding for a document
func (e *Hash) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.generateEmbedding(text), nil
}

// EmbedDocuments generates embeddings for documents
func (e *Hash) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.generateEmbedding(text)
	}
	return embeddings, nil
}

// GetDimension returns the embedding dimension
func (e *Hash) GetDimension() int {
	return e.Dimension
}

func (e *Hash) generateEmbedding(text string) []float32 {
	embedding := make([]float32, e.Dimension)
	if e.Dimension == 0 {
		return embedding
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New64a()
		h.Write([]byte(w))
		sum := h.Sum64()
		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		embedding[sum%uint64(e.Dimension)] += sign
	}

	// Normalize
	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)

	if norm > 0 {
		for i := range embedding {
			embedding[i] = float32(float64(embedding[i]) / norm)
		}
	}

	return embedding
}

package embedder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/smallnest/ragagents/rag"
)

// OpenAI embeds text with an OpenAI compatible embeddings endpoint
type OpenAI struct {
	client    *goopenai.Client
	model     string
	batchSize int

	mu  sync.Mutex
	dim int
}

var _ rag.Embedder = (*OpenAI)(nil)

// OpenAIOption configures the OpenAI embedder
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	baseURL   string
	batchSize int
	dimension int
}

// WithBaseURL points the client at a compatible server
func WithBaseURL(url string) OpenAIOption {
	return func(o *openAIOptions) {
		o.baseURL = url
	}
}

// WithBatchSize sets how many texts are sent per request, default 64
func WithBatchSize(n int) OpenAIOption {
	return func(o *openAIOptions) {
		o.batchSize = n
	}
}

// WithDimension declares the vector size so GetDimension does not need a probe request
func WithDimension(dim int) OpenAIOption {
	return func(o *openAIOptions) {
		o.dimension = dim
	}
}

// NewOpenAI creates an OpenAI embedder for the given model
func NewOpenAI(apiKey, model string, opts ...OpenAIOption) *OpenAI {
	o := openAIOptions{batchSize: 64}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.batchSize <= 0 {
		o.batchSize = 64
	}

	return &OpenAI{
		client:    goopenai.NewClientWithConfig(cfg),
		model:     model,
		batchSize: o.batchSize,
		dim:       o.dimension,
	}
}

// EmbedDocument embeds a single text
func (e *OpenAI) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds texts in batches, preserving order
func (e *OpenAI) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
			Input: batch,
			Model: goopenai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embedding endpoint returned %d vectors for %d texts", len(resp.Data), len(batch))
		}

		vectors := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("embedding index %d out of range", d.Index)
			}
			vectors[d.Index] = d.Embedding
		}
		out = append(out, vectors...)
	}

	if len(out) > 0 {
		e.mu.Lock()
		if e.dim == 0 {
			e.dim = len(out[0])
		}
		e.mu.Unlock()
	}
	return out, nil
}

// GetDimension returns the vector size, probing the endpoint once if unknown
func (e *OpenAI) GetDimension() int {
	e.mu.Lock()
	dim := e.dim
	e.mu.Unlock()
	if dim > 0 {
		return dim
	}
	v, err := e.EmbedDocument(context.Background(), "dimension probe")
	if err != nil {
		return 0
	}
	return len(v)
}

var errNoAPIKey = errors.New("embedding api key is required")

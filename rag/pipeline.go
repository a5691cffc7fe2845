package rag

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/smallnest/ragagents/log"
	"github.com/smallnest/ragagents/rag/store"
	"github.com/tmc/langchaingo/llms"
)

var (
	// ErrNotEnoughContext is returned when no stored chunk is similar enough to the query
	ErrNotEnoughContext = errors.New("not enough context found")
	// ErrEmptyQuery is returned for blank questions
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// DefaultSystemPrompt instructs the model to answer from the retrieved context only
const DefaultSystemPrompt = "You are an AI assistant that provides answers based solely on the given context and user query. " +
	"Please ensure your responses are clear, concise, and directly address the user query, including only relevant information."

// SimplePipeline indexes text chunks, retrieves the closest ones for a
// question and asks a model to answer from them.
type SimplePipeline struct {
	embedder     Embedder
	client       *store.Client
	model        llms.Model
	collection   string
	topK         int
	threshold    float64
	systemPrompt string
	logger       log.Logger
}

// SimplePipelineOption configures a SimplePipeline
type SimplePipelineOption func(*SimplePipeline)

// WithCollection sets the collection name, default "documents"
func WithCollection(name string) SimplePipelineOption {
	return func(p *SimplePipeline) {
		p.collection = name
	}
}

// WithTopK sets the number of chunks retrieved per question, default 3
func WithTopK(k int) SimplePipelineOption {
	return func(p *SimplePipeline) {
		p.topK = k
	}
}

// WithThreshold sets the minimum score of the best chunk, default 0.6
func WithThreshold(threshold float64) SimplePipelineOption {
	return func(p *SimplePipeline) {
		p.threshold = threshold
	}
}

// WithSystemPrompt overrides DefaultSystemPrompt
func WithSystemPrompt(prompt string) SimplePipelineOption {
	return func(p *SimplePipeline) {
		p.systemPrompt = prompt
	}
}

// WithPipelineLogger sets the pipeline logger
func WithPipelineLogger(logger log.Logger) SimplePipelineOption {
	return func(p *SimplePipeline) {
		p.logger = logger
	}
}

// NewSimplePipeline creates a SimplePipeline
func NewSimplePipeline(embedder Embedder, client *store.Client, model llms.Model, opts ...SimplePipelineOption) *SimplePipeline {
	p := &SimplePipeline{
		embedder:     embedder,
		client:       client,
		model:        model,
		collection:   "documents",
		topK:         3,
		threshold:    0.6,
		systemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = log.OrNoOp(p.logger)
	return p
}

// Index replaces the collection with one point per chunk
func (p *SimplePipeline) Index(ctx context.Context, chunks []string) error {
	dim := p.embedder.GetDimension()
	if dim <= 0 {
		return fmt.Errorf("embedder reported invalid dimension %d", dim)
	}
	if err := p.client.RecreateCollection(ctx, p.collection, store.CollectionConfig{Size: dim, Distance: store.Cosine}); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]store.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = store.Point{
			ID:      strconv.Itoa(i),
			Vector:  vectors[i],
			Payload: map[string]any{"content": chunk, "chunk_index": i},
		}
	}
	if err := p.client.Upsert(ctx, p.collection, points); err != nil {
		return err
	}
	p.logger.Info("indexed %d chunks into %s", len(chunks), p.collection)
	return nil
}

// Search returns the topK chunks most similar to query
func (p *SimplePipeline) Search(ctx context.Context, query string) ([]DocumentSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	vector, err := p.embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	hits, err := p.client.Search(ctx, p.collection, vector, p.topK)
	if err != nil {
		return nil, err
	}

	results := make([]DocumentSearchResult, len(hits))
	for i, h := range hits {
		content, _ := h.Payload["content"].(string)
		results[i] = DocumentSearchResult{
			Document: Document{ID: h.ID, Content: content, Metadata: h.Payload},
			Score:    h.Score,
		}
	}
	return results, nil
}

// Ask answers query from the retrieved chunks. It returns ErrNotEnoughContext
// without calling the model when the best chunk scores below the threshold.
func (p *SimplePipeline) Ask(ctx context.Context, query string) (string, error) {
	p.logger.Info("performing semantic search")
	results, err := p.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 || results[0].Score < p.threshold {
		p.logger.Warn("not enough context found for %q", query)
		return "", ErrNotEnoughContext
	}

	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Document.Content
	}
	prompt := fmt.Sprintf("User query: %s and the following Context: %s", query, strings.Join(contents, "\n"))

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, p.systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	response, err := p.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return response.Choices[0].Content, nil
}

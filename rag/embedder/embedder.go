package embedder

import (
	"fmt"

	"github.com/smallnest/ragagents/config"
	"github.com/smallnest/ragagents/rag"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// New builds the embedder selected by cfg.Provider
func New(cfg config.Embedding) (rag.Embedder, error) {
	switch cfg.Provider {
	case "", "hash":
		if cfg.Dimension <= 0 {
			return nil, fmt.Errorf("hash embedder needs a positive dimension, got %d", cfg.Dimension)
		}
		return NewHash(cfg.Dimension), nil

	case "openai":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, errNoAPIKey
		}
		opts := []OpenAIOption{WithBatchSize(cfg.BatchSize)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		return NewOpenAI(cfg.APIKey, cfg.Model, opts...), nil

	case "langchain-openai":
		opts := []lcopenai.Option{lcopenai.WithEmbeddingModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, lcopenai.WithToken(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := lcopenai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return newLangChain(llm)

	case "langchain-ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return newLangChain(llm)
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
}

func newLangChain(client embeddings.EmbedderClient) (rag.Embedder, error) {
	e, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return rag.NewLangChainEmbedder(e), nil
}

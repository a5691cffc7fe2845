package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/smallnest/ragagents/log"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateSubtitle(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateRAG(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func (c *Config) validateProviders() error {
	if !slices.Contains([]string{"openai", "ollama"}, c.LLM.Provider) {
		return fmt.Errorf("llm.provider must be openai or ollama, got %q", c.LLM.Provider)
	}
	if !slices.Contains([]string{"hash", "openai", "langchain-openai", "langchain-ollama"}, c.Embedding.Provider) {
		return fmt.Errorf("embedding.provider must be hash, openai, langchain-openai or langchain-ollama, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "hash" && c.Embedding.Dimension <= 0 {
		return errors.New("embedding.dimension must be positive")
	}
	if !slices.Contains([]string{"memory", "sqlite", "redis", "postgres"}, c.Store.Backend) {
		return fmt.Errorf("store.backend must be memory, sqlite, redis or postgres, got %q", c.Store.Backend)
	}
	if c.Store.Backend == "sqlite" && c.Store.SQLitePath == "" {
		return errors.New("store.sqlite_path must be set when store.backend is sqlite")
	}
	if c.Store.Backend == "postgres" && c.Store.PostgresURL == "" {
		return errors.New("store.postgres_url must be set when store.backend is postgres")
	}
	return nil
}

func (c *Config) validateSubtitle() error {
	if c.Subtitle.SegmentSeconds <= 0 {
		return errors.New("subtitle.segment_seconds must be positive")
	}
	if c.Subtitle.GroupSize <= 0 || c.Subtitle.Limit <= 0 {
		return errors.New("subtitle.group_size and subtitle.limit must be positive")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.TopK <= 0 || c.Recommend.NeighborLimit <= 0 {
		return errors.New("recommend.top_k and recommend.neighbor_limit must be positive")
	}
	return nil
}

func (c *Config) validateRAG() error {
	if c.RAG.ChunkSize <= 0 {
		return errors.New("rag.chunk_size must be positive")
	}
	if c.RAG.Overlap < 0 || c.RAG.Overlap >= c.RAG.ChunkSize {
		return errors.New("rag.overlap must be in [0, chunk_size)")
	}
	if c.RAG.TopK <= 0 {
		return errors.New("rag.top_k must be positive")
	}
	if t := c.RelevanceThreshold(); t < -1 || t > 1 {
		return errors.New("rag.threshold must be between -1 and 1")
	}
	return nil
}

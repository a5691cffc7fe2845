package embedder

import (
	"testing"

	"github.com/smallnest/ragagents/config"
	"github.com/smallnest/ragagents/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Embedding
		want    any
		wantErr bool
	}{
		{"hash", config.Embedding{Provider: "hash", Dimension: 32}, &Hash{}, false},
		{"hash without dimension", config.Embedding{Provider: "hash"}, nil, true},
		{"openai", config.Embedding{Provider: "openai", APIKey: "sk", Model: "text-embedding-3-small"}, &OpenAI{}, false},
		{"openai without key", config.Embedding{Provider: "openai"}, nil, true},
		{"langchain openai", config.Embedding{Provider: "langchain-openai", APIKey: "sk", Model: "text-embedding-3-small"}, &rag.LangChainEmbedder{}, false},
		{"langchain ollama", config.Embedding{Provider: "langchain-ollama", Model: "nomic-embed-text", BaseURL: "http://localhost:11434"}, &rag.LangChainEmbedder{}, false},
		{"unknown", config.Embedding{Provider: "bert"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, e)
		})
	}
}

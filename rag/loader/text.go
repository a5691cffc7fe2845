package loader

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/smallnest/ragagents/rag"
)

// TextLoader loads a whole text file as one document
type TextLoader struct {
	filePath string
	metadata map[string]any
}

// TextLoaderOption configures the TextLoader
type TextLoaderOption func(*TextLoader)

// WithMetadata sets additional metadata for loaded documents
func WithMetadata(metadata map[string]any) TextLoaderOption {
	return func(l *TextLoader) {
		maps.Copy(l.metadata, metadata)
	}
}

// NewTextLoader creates a new TextLoader
func NewTextLoader(filePath string, opts ...TextLoaderOption) *TextLoader {
	l := &TextLoader{
		filePath: filePath,
		metadata: map[string]any{
			"source": filePath,
			"type":   "text",
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

var _ rag.DocumentLoader = (*TextLoader)(nil)

// Load loads documents from the text file
func (l *TextLoader) Load(ctx context.Context) ([]rag.Document, error) {
	content, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", l.filePath, err)
	}

	doc := rag.Document{
		ID:       fmt.Sprintf("text_%s", filepath.Base(l.filePath)),
		Content:  string(content),
		Metadata: maps.Clone(l.metadata),
	}

	return []rag.Document{doc}, nil
}

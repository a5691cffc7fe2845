package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/smallnest/ragagents/rag"
	"github.com/tmc/langchaingo/documentloaders"
)

// PDFLoader extracts page texts from a PDF file through langchaingo
type PDFLoader struct {
	filePath string
}

var _ rag.DocumentLoader = (*PDFLoader)(nil)

// NewPDFLoader creates a PDFLoader for the given file
func NewPDFLoader(filePath string) *PDFLoader {
	return &PDFLoader{filePath: filePath}
}

// Load returns one document per page
func (l *PDFLoader) Load(ctx context.Context) ([]rag.Document, error) {
	f, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", l.filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", l.filePath, err)
	}

	adapter := rag.NewLangChainDocumentLoader(
		documentloaders.NewPDF(f, info.Size()),
		map[string]any{"source": l.filePath, "type": "pdf"},
	)
	docs, err := adapter.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf %s: %w", l.filePath, err)
	}
	return docs, nil
}

// LoadText returns the text of all pages concatenated in page order
func (l *PDFLoader) LoadText(ctx context.Context) (string, error) {
	docs, err := l.Load(ctx)
	if err != nil {
		return "", err
	}
	return JoinPages(docs), nil
}

// JoinPages concatenates document contents without separators
func JoinPages(docs []rag.Document) string {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString(d.Content)
	}
	return b.String()
}

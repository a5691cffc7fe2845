package splitter

import (
	"fmt"
	"maps"

	"github.com/smallnest/ragagents/rag"
)

// FixedSizeSplitter cuts text into windows of Size runes starting every
// Size-Overlap runes. The final windows may be shorter than Size.
type FixedSizeSplitter struct {
	Size    int
	Overlap int
}

var _ rag.TextSplitter = (*FixedSizeSplitter)(nil)

// NewFixedSizeSplitter creates a FixedSizeSplitter; overlap must be smaller than size
func NewFixedSizeSplitter(size, overlap int) (*FixedSizeSplitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &FixedSizeSplitter{Size: size, Overlap: overlap}, nil
}

// SplitText splits text into chunks
func (s *FixedSizeSplitter) SplitText(text string) []string {
	runes := []rune(text)
	step := s.Size - s.Overlap

	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := min(i+s.Size, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// SplitDocuments splits documents into smaller chunks
func (s *FixedSizeSplitter) SplitDocuments(documents []rag.Document) []rag.Document {
	var result []rag.Document

	for _, doc := range documents {
		chunks := s.SplitText(doc.Content)
		for i, chunk := range chunks {
			newDoc := rag.Document{
				ID:        fmt.Sprintf("%s_%d", doc.ID, i),
				Content:   chunk,
				Metadata:  make(map[string]any),
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
			}

			// Copy metadata
			maps.Copy(newDoc.Metadata, doc.Metadata)

			// Add chunk metadata
			newDoc.Metadata["source_id"] = doc.ID
			newDoc.Metadata["chunk_index"] = i
			newDoc.Metadata["total_chunks"] = len(chunks)

			result = append(result, newDoc)
		}
	}

	return result
}

package subtitle

import (
	"strings"
)

// Chunk is a time-bounded run of caption text from one subtitle file
type Chunk struct {
	FileName string `json:"file_name"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Text     string `json:"text"`
	VideoID  string `json:"video_id"`
	Language string `json:"language,omitempty"`
}

// Chunker merges captions into chunks of at least Threshold seconds
type Chunker struct {
	Threshold int
}

// Chunk is shorthand for ChunkCaptions with the chunker threshold
func (c Chunker) Chunk(fileName, videoID string, captions []Caption) []Chunk {
	return ChunkCaptions(fileName, videoID, captions, c.Threshold)
}

// ChunkCaptions merges consecutive captions into chunks.
//
// A chunk is closed when a caption ends threshold seconds or more after the
// running start, or at the last caption. The closing caption starts the next
// chunk, except for the last caption which is appended to the chunk it
// closes. Start and end are whole seconds. Chunks without text are skipped.
func ChunkCaptions(fileName, videoID string, captions []Caption, threshold int) []Chunk {
	var chunks []Chunk
	start := 0
	var text []string

	for i, caption := range captions {
		end := Seconds(caption.End)
		last := i == len(captions)-1

		if end-start >= threshold || last {
			if last {
				text = append(text, caption.Text)
			}
			if joined := joinText(text); joined != "" {
				chunks = append(chunks, Chunk{
					FileName: fileName,
					Start:    start,
					End:      end,
					Text:     joined,
					VideoID:  videoID,
				})
			}
			text = []string{caption.Text}
			start = end
		} else {
			text = append(text, caption.Text)
		}
	}
	return chunks
}

func joinText(parts []string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

package subtitle

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/smallnest/ragagents/rag"
	"github.com/smallnest/ragagents/rag/store"
)

// MinuteChunk is the transcript text spoken during one minute
type MinuteChunk struct {
	Minute int
	Text   string
}

// ReadMinuteTranscript groups "MM:SS text" lines by minute. Lines are
// joined with a space; chunks are ordered by minute.
func ReadMinuteTranscript(r io.Reader) ([]MinuteChunk, error) {
	byMinute := make(map[int][]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		stamp, text, ok := strings.Cut(line, " ")
		if !ok {
			stamp, text = line, ""
		}
		mm, _, ok := strings.Cut(stamp, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: missing MM:SS timestamp", lineNo)
		}
		minute, err := strconv.Atoi(mm)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid minute %q: %w", lineNo, mm, err)
		}
		byMinute[minute] = append(byMinute[minute], text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	chunks := make([]MinuteChunk, 0, len(byMinute))
	for minute, texts := range byMinute {
		chunks = append(chunks, MinuteChunk{Minute: minute, Text: strings.Join(texts, " ")})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Minute < chunks[j].Minute })
	return chunks, nil
}

// MinuteLink links to the start of minute in a YouTube video
func MinuteLink(videoID string, minute int) string {
	return fmt.Sprintf("https://youtu.be/%s?t=%d", videoID, minute*60)
}

// TranscriptIndex ranks the minutes of video transcripts by similarity
type TranscriptIndex struct {
	embedder   rag.Embedder
	client     *store.Client
	collection string
}

// NewTranscriptIndex creates an index over collection of client.
func NewTranscriptIndex(embedder rag.Embedder, client *store.Client, collection string) *TranscriptIndex {
	return &TranscriptIndex{
		embedder:   embedder,
		client:     client,
		collection: collection,
	}
}

// Count returns the number of indexed minutes, 0 when the collection does
// not exist yet.
func (t *TranscriptIndex) Count(ctx context.Context) (int, error) {
	exists, err := t.client.CollectionExists(ctx, t.collection)
	if err != nil || !exists {
		return 0, err
	}
	return t.client.Count(ctx, t.collection)
}

// Add embeds the minute chunks of videoID. The collection is created on
// first use; chunks with the same minute and video replace earlier ones.
func (t *TranscriptIndex) Add(ctx context.Context, videoID string, chunks []MinuteChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	exists, err := t.client.CollectionExists(ctx, t.collection)
	if err != nil {
		return err
	}
	if !exists {
		if err := t.client.CreateCollection(ctx, t.collection, store.CollectionConfig{
			Size:     t.embedder.GetDimension(),
			Distance: store.Cosine,
		}); err != nil {
			return err
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := t.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed transcript: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d minutes", len(vectors), len(chunks))
	}

	points := make([]store.Point, len(chunks))
	for i, c := range chunks {
		points[i] = store.Point{
			ID:     videoID + ":" + strconv.Itoa(c.Minute),
			Vector: vectors[i],
			Payload: map[string]any{
				"video_id":   videoID,
				"start_time": c.Minute * 60,
				"text":       c.Text,
			},
		}
	}
	return t.client.Upsert(ctx, t.collection, points)
}

// Search returns links to the n best matching minutes.
func (t *TranscriptIndex) Search(ctx context.Context, query string, n int) ([]string, error) {
	if query == "" {
		return nil, errors.New("empty query")
	}
	vector, err := t.embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	results, err := t.client.Search(ctx, t.collection, vector, n)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(results))
	for _, r := range results {
		start := intField(r.Payload, "start_time")
		links = append(links, MinuteLink(stringField(r.Payload, "video_id"), start/60))
	}
	return links, nil
}

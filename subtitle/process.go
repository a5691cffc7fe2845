package subtitle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/smallnest/ragagents/log"
)

// ProcessDir chunks every .vtt file of dir. The result is keyed by the
// cleaned file name; each chunk carries the dominant language of its file.
// Files without any cue are skipped with a warning.
func ProcessDir(dir string, threshold int, logger log.Logger) (map[string][]Chunk, error) {
	logger = log.OrNoOp(logger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitles directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".vtt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	result := make(map[string][]Chunk, len(names))
	for _, name := range names {
		captions, err := ReadVTTFile(filepath.Join(dir, name))
		if errors.Is(err, ErrNoCaptions) {
			logger.Warn("skipping %s: %v", name, ErrNoCaptions)
			continue
		}
		if err != nil {
			return nil, err
		}

		clean := CleanFileName(name)
		chunks := ChunkCaptions(clean, VideoID(name), captions, threshold)
		lang := DetectLanguage(captions)
		for i := range chunks {
			chunks[i].Language = lang
		}
		result[clean] = append(result[clean], chunks...)
	}
	return result, nil
}

// DetectLanguage returns the ISO 639-1 code most captions are written in,
// or "" when no caption could be classified.
func DetectLanguage(captions []Caption) string {
	counts := make(map[string]int)
	for _, c := range captions {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		if code := whatlanggo.DetectLang(text).Iso6391(); code != "" {
			counts[code]++
		}
	}

	best, bestCount := "", 0
	for code, n := range counts {
		if n > bestCount || (n == bestCount && code < best) {
			best, bestCount = code, n
		}
	}
	return best
}

package subtitle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"

	"github.com/smallnest/ragagents/log"
)

// ErrLoadInProgress is returned when another process holds the collection lock.
var ErrLoadInProgress = errors.New("collection load already in progress")

// Loader downloads, chunks and stores the subtitles of a collection.
type Loader struct {
	Dir        string
	Threshold  int
	Downloader Downloader
	Index      *Index
	Logger     log.Logger
}

// SubtitlesDir is where the subtitles of collection name are downloaded.
func (l *Loader) SubtitlesDir(name string) string {
	return filepath.Join(l.Dir, name, "subtitles")
}

// Load replaces collection name with the subtitles found at url. Only one
// load per collection runs at a time.
func (l *Loader) Load(ctx context.Context, name, url string) error {
	logger := log.OrNoOp(l.Logger)
	if name == "" {
		return errors.New("collection name required")
	}

	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create collections directory: %w", err)
	}
	lock := flock.New(filepath.Join(l.Dir, name+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire collection lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%s: %w", name, ErrLoadInProgress)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock for %s: %v", name, err)
		}
	}()

	dir := l.SubtitlesDir(name)
	if _, err := os.Stat(dir); err == nil {
		logger.Info("deleting existing directory %s", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove subtitles directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create subtitles directory: %w", err)
	}

	logger.Info("downloading subtitles for %s into collection %s", url, name)
	if err := l.Downloader.Download(ctx, url, dir); err != nil {
		return err
	}

	chunks, err := ProcessDir(dir, l.Threshold, logger)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no subtitle files downloaded for %s", url)
	}
	logger.Info("processed %d subtitle files", len(chunks))

	return l.Index.Store(ctx, name, chunks)
}

func sortedKeys(m map[string][]Chunk) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package subtitle

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragagents/log"
)

const englishVTT = `WEBVTT

00:00:01.000 --> 00:00:20.000
The quick brown fox jumps over the lazy dog and then runs back into the forest.

00:00:20.000 --> 00:00:40.000
Programming languages should make developers happy and productive every single day.

00:00:40.000 --> 00:00:55.000
We talked about the future of software and the people who build it together.
`

func writeVTT(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestProcessDir(t *testing.T) {
	dir := t.TempDir()
	writeVTT(t, dir, "Talk One [abc123].en.vtt", englishVTT)
	writeVTT(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.vtt"), 0o755))

	result, err := ProcessDir(dir, 30, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)

	chunks := result["Talk One"]
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 40, chunks[0].End)
	assert.Equal(t, 55, chunks[1].End)
	for _, c := range chunks {
		assert.Equal(t, "abc123", c.VideoID)
		assert.Equal(t, "Talk One", c.FileName)
		assert.Equal(t, "en", c.Language)
	}
}

func TestProcessDirErrors(t *testing.T) {
	_, err := ProcessDir(filepath.Join(t.TempDir(), "missing"), 30, nil)
	assert.Error(t, err)

	dir := t.TempDir()
	writeVTT(t, dir, "broken [x].en.vtt", "not a subtitle")
	_, err = ProcessDir(dir, 30, nil)
	assert.Error(t, err)
}

func TestProcessDirSkipsFilesWithoutCues(t *testing.T) {
	dir := t.TempDir()
	writeVTT(t, dir, "Talk A [abc123].en.vtt", englishVTT)
	writeVTT(t, dir, "Talk B [def456].en.vtt", "WEBVTT\n\nNOTE nothing was said\n")

	var buf bytes.Buffer
	logger := log.NewCustomLogger(&buf, log.LogLevelWarn)

	result, err := ProcessDir(dir, 30, logger)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Len(t, result["Talk A"], 2)
	assert.NotContains(t, result, "Talk B")
	assert.Contains(t, buf.String(), "skipping Talk B [def456].en.vtt")
}

func TestDetectLanguage(t *testing.T) {
	assert.Empty(t, DetectLanguage(nil))
	assert.Empty(t, DetectLanguage([]Caption{{Text: "  "}}))
}

package subtitle

import (
	"strconv"
	"strings"
)

// VideoID returns the text between the first "[" and the first "]" of a
// yt-dlp output name such as "Episode 12 [dQw4w9WgXcQ].en.vtt".
func VideoID(fileName string) string {
	start := strings.Index(fileName, "[")
	end := strings.Index(fileName, "]")
	if start < 0 || end <= start {
		return ""
	}
	return fileName[start+1 : end]
}

// CleanFileName drops the " [id].lang.vtt" suffix of a yt-dlp output name.
func CleanFileName(fileName string) string {
	idx := strings.LastIndex(fileName, "[")
	if idx < 0 {
		return strings.TrimSpace(strings.TrimSuffix(fileName, ".vtt"))
	}
	if idx == 0 {
		return ""
	}
	return strings.TrimSpace(fileName[:idx-1])
}

// WatchURL links to the chunk's time range on YouTube
func WatchURL(videoID string, start, end int) string {
	return "https://www.youtube.com/watch?v=" + videoID + "&start=" + strconv.Itoa(start) + "&end=" + strconv.Itoa(end)
}

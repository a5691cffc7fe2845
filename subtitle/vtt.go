// Package subtitle turns downloaded WebVTT subtitles into time-bounded text
// chunks, stores them as vectors and searches them grouped by source file.
package subtitle

import (
	"bufio"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoCaptions is returned for subtitle files without any cue
var ErrNoCaptions = errors.New("no captions found")

// Caption is one WebVTT cue
type Caption struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

var (
	timingRe = regexp.MustCompile(`^((?:\d+:)?\d{2}:\d{2}\.\d{3})\s+-->\s+((?:\d+:)?\d{2}:\d{2}\.\d{3})`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
)

// ReadVTTFile reads captions from a .vtt file
func ReadVTTFile(path string) ([]Caption, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer f.Close()

	captions, err := ReadVTT(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return captions, nil
}

// ReadVTT parses WebVTT cues. NOTE, STYLE and REGION blocks are skipped,
// cue settings are ignored and inline tags are removed. Multi-line cue text
// is joined with "\n".
func ReadVTT(r io.Reader) ([]Caption, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks [][]string
	var block []string
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			first = false
			line = strings.TrimPrefix(line, "\ufeff")
			if !strings.HasPrefix(line, "WEBVTT") {
				return nil, errors.New("missing WEBVTT header")
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			if len(block) > 0 {
				blocks = append(blocks, block)
				block = nil
			}
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	if first {
		return nil, errors.New("missing WEBVTT header")
	}
	if len(block) > 0 {
		blocks = append(blocks, block)
	}

	var captions []Caption
	for _, b := range blocks {
		c, ok, err := parseCue(b)
		if err != nil {
			return nil, err
		}
		if ok {
			captions = append(captions, c)
		}
	}
	if len(captions) == 0 {
		return nil, ErrNoCaptions
	}
	return captions, nil
}

// parseCue parses a block; ok is false for blocks that are not cues.
func parseCue(block []string) (Caption, bool, error) {
	head := block[0]
	if strings.HasPrefix(head, "NOTE") || strings.HasPrefix(head, "STYLE") || strings.HasPrefix(head, "REGION") {
		return Caption{}, false, nil
	}

	timing := -1
	for i, line := range block {
		if strings.Contains(line, "-->") {
			timing = i
			break
		}
	}
	// header metadata such as "Kind: captions" has no timing line
	if timing < 0 || timing > 1 {
		return Caption{}, false, nil
	}

	m := timingRe.FindStringSubmatch(strings.TrimSpace(block[timing]))
	if m == nil {
		return Caption{}, false, fmt.Errorf("invalid cue timing: %q", block[timing])
	}
	start, err := parseTimestamp(m[1])
	if err != nil {
		return Caption{}, false, err
	}
	end, err := parseTimestamp(m[2])
	if err != nil {
		return Caption{}, false, err
	}

	var lines []string
	for _, line := range block[timing+1:] {
		text := strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(line, "")))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return Caption{Start: start, End: end, Text: strings.Join(lines, "\n")}, true, nil
}

// parseTimestamp parses "HH:MM:SS.mmm" or "MM:SS.mmm"
func parseTimestamp(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp: %q", s)
	}
	secParts := strings.SplitN(parts[2], ".", 2)
	if len(secParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp: %q", s)
	}

	nums := make([]int, 4)
	for i, p := range []string{parts[0], parts[1], secParts[0], secParts[1]} {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		nums[i] = n
	}
	if nums[1] > 59 || nums[2] > 59 {
		return 0, fmt.Errorf("invalid timestamp: %q", s)
	}

	return time.Duration(nums[0])*time.Hour +
		time.Duration(nums[1])*time.Minute +
		time.Duration(nums[2])*time.Second +
		time.Duration(nums[3])*time.Millisecond, nil
}

// Seconds truncates d to whole seconds
func Seconds(d time.Duration) int {
	return int(d / time.Second)
}

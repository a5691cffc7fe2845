package subtitle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Downloader fetches subtitle files for a video or playlist URL into dir.
type Downloader interface {
	Download(ctx context.Context, url, dir string) error
}

// YTDLPOption configures the yt-dlp wrapper.
type YTDLPOption func(*YTDLP)

// WithBinary overrides the default binary name.
func WithBinary(binary string) YTDLPOption {
	return func(y *YTDLP) {
		if binary != "" {
			y.binary = binary
		}
	}
}

// WithLanguages overrides the subtitle languages, "en" by default.
func WithLanguages(langs ...string) YTDLPOption {
	return func(y *YTDLP) {
		if len(langs) > 0 {
			y.langs = langs
		}
	}
}

// YTDLP wraps the yt-dlp command line tool. Only subtitles are fetched.
type YTDLP struct {
	binary string
	langs  []string
}

var _ Downloader = (*YTDLP)(nil)

// NewYTDLP constructs a downloader using defaults.
func NewYTDLP(opts ...YTDLPOption) *YTDLP {
	y := &YTDLP{binary: "yt-dlp", langs: []string{"en"}}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Args returns the yt-dlp arguments used for url and dir.
func (y *YTDLP) Args(url, dir string) []string {
	return []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", strings.Join(y.langs, ","),
		"--sub-format", "vtt",
		"--ignore-errors",
		"--paths", "home:" + dir,
		url,
	}
}

// Download runs yt-dlp. A non-zero exit is reported with its stderr tail.
func (y *YTDLP) Download(ctx context.Context, url, dir string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("url required")
	}
	if strings.TrimSpace(dir) == "" {
		return errors.New("output directory required")
	}

	cmd := commandContext(ctx, y.binary, y.Args(url, dir)...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		if msg != "" {
			return fmt.Errorf("yt-dlp failed: %w: %s", err, msg)
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	return nil
}

package tool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/smallnest/ragagents/agent"
)

// maxPageText bounds the text returned for one page
const maxPageText = 50000

// WebFetch downloads url and returns the visible text of its body.
func WebFetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ragagents/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		return "", errors.New("no text content found")
	}
	if len(text) > maxPageText {
		text = text[:maxPageText]
	}
	return text, nil
}

// NewWebFetchTool declares WebFetch as the fetch_page tool.
func NewWebFetchTool() agent.Tool {
	return agent.NewFunctionTool(
		"fetch_page",
		"Download a web page and return its text.",
		agent.ObjectSchema([]agent.Property{{Name: "url", Type: "string", Description: "the page URL", Required: true}}),
		func(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
			url := strings.TrimSpace(agent.StringArg(args, "url"))
			if url == "" {
				return agent.Failure("A URL is required."), nil
			}
			text, err := WebFetch(ctx, url)
			if err != nil {
				return agent.Failure(err.Error()), nil
			}
			return agent.Success(text), nil
		},
	)
}

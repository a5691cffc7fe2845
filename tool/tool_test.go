package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragagents/agent"
)

func TestBraveSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "golang generics", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web":{"results":[
			{"title":"Go Generics","url":"https://go.dev/doc/tutorial/generics","description":"Tutorial"},
			{"title":"Proposal","url":"https://go.dev/issue/43651","description":"Design"}
		]}}`))
	}))
	defer server.Close()

	b, err := NewBraveSearch("test-key", WithBraveBaseURL(server.URL), WithBraveCount(3))
	require.NoError(t, err)

	text, err := b.Search(context.Background(), "golang generics")
	require.NoError(t, err)
	assert.Contains(t, text, "1. Title: Go Generics")
	assert.Contains(t, text, "URL: https://go.dev/issue/43651")

	out, err := b.Call(context.Background(), &agent.ToolContext{}, map[string]any{"query": "golang generics"})
	require.NoError(t, err)
	assert.True(t, out.(agent.Response).OK())

	out, err = b.Call(context.Background(), &agent.ToolContext{}, map[string]any{"query": " "})
	require.NoError(t, err)
	assert.Equal(t, agent.Failure("A search query is required."), out)
}

func TestBraveSearchErrors(t *testing.T) {
	t.Setenv("BRAVE_API_KEY", "")
	_, err := NewBraveSearch("")
	assert.Error(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	b, err := NewBraveSearch("k", WithBraveBaseURL(server.URL), WithBraveCount(50))
	require.NoError(t, err)
	assert.Equal(t, 20, b.Count)

	_, err = b.Search(context.Background(), "q")
	assert.ErrorContains(t, err, "status: 429")

	out, err := b.Call(context.Background(), &agent.ToolContext{}, map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.False(t, out.(agent.Response).OK())

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer empty.Close()
	b.BaseURL = empty.URL
	text, err := b.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "No results found", text)
}

func TestWebFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
	<title>Test Page</title>
	<script>console.log('test');</script>
	<style>body { color: blue; }</style>
</head>
<body>
	<h1>Test Content</h1>
	<p>This is a test paragraph.</p>
	<script>alert('test');</script>
</body>
</html>`))
	}))
	defer server.Close()

	result, err := WebFetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Test Content This is a test paragraph.", result)

	errorServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer errorServer.Close()

	_, err = WebFetch(context.Background(), errorServer.URL)
	assert.ErrorContains(t, err, "status code 404")

	emptyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer emptyServer.Close()

	_, err = WebFetch(context.Background(), emptyServer.URL)
	assert.ErrorContains(t, err, "no text content found")

	_, err = WebFetch(context.Background(), "invalid-url")
	assert.Error(t, err)

	out, err := NewWebFetchTool().Call(context.Background(), &agent.ToolContext{}, map[string]any{"url": server.URL})
	require.NoError(t, err)
	assert.Equal(t, agent.Success("Test Content This is a test paragraph."), out)
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("```markdown\n# Report\n\nSee [docs](https://go.dev).\n\n<script>alert(1)</script>\n```")
	assert.Contains(t, out, `<h1 id="report">Report</h1>`)
	assert.Contains(t, out, `href="https://go.dev"`)
	assert.NotContains(t, out, "<script>")
}

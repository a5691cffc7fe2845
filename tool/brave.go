package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/smallnest/ragagents/agent"
)

const braveSearchURL = "https://api.search.brave.com/res/v1/web/search"

// BraveSearch is a tool that uses the Brave Search API to search the web.
type BraveSearch struct {
	APIKey  string
	BaseURL string
	Count   int
	Country string
	Lang    string
	Client  *http.Client
}

var _ agent.Tool = (*BraveSearch)(nil)

type BraveOption func(*BraveSearch)

// WithBraveBaseURL sets the base URL for the Brave Search API.
func WithBraveBaseURL(baseURL string) BraveOption {
	return func(b *BraveSearch) {
		b.BaseURL = baseURL
	}
}

// WithBraveCount sets the number of results to return (1-20).
func WithBraveCount(count int) BraveOption {
	return func(b *BraveSearch) {
		if count < 1 {
			count = 1
		}
		if count > 20 {
			count = 20
		}
		b.Count = count
	}
}

// WithBraveCountry sets the country code for search results (e.g., "US", "CN").
func WithBraveCountry(country string) BraveOption {
	return func(b *BraveSearch) {
		b.Country = country
	}
}

// WithBraveLang sets the language code for search results (e.g., "en", "zh").
func WithBraveLang(lang string) BraveOption {
	return func(b *BraveSearch) {
		b.Lang = lang
	}
}

// WithBraveHTTPClient sets the HTTP client
func WithBraveHTTPClient(c *http.Client) BraveOption {
	return func(b *BraveSearch) {
		if c != nil {
			b.Client = c
		}
	}
}

// NewBraveSearch creates a new BraveSearch tool.
// If apiKey is empty, it tries to read from BRAVE_API_KEY environment variable.
func NewBraveSearch(apiKey string, opts ...BraveOption) (*BraveSearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("BRAVE_API_KEY not set")
	}

	b := &BraveSearch{
		APIKey:  apiKey,
		BaseURL: braveSearchURL,
		Count:   10,
		Country: "US",
		Lang:    "en",
		Client:  http.DefaultClient,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// SearchResult is one web result
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type braveResponse struct {
	Web struct {
		Results []SearchResult `json:"results"`
	} `json:"web"`
}

// Name returns the name of the tool.
func (b *BraveSearch) Name() string {
	return "web_search"
}

// Description returns the description of the tool.
func (b *BraveSearch) Description() string {
	return "Search the web for current information. Returns titles, URLs and descriptions of the best results."
}

// Parameters returns the argument schema
func (b *BraveSearch) Parameters() map[string]any {
	return agent.ObjectSchema([]agent.Property{{Name: "query", Type: "string", Description: "the search query", Required: true}})
}

// Call implements agent.Tool. Search failures are reported as error Responses.
func (b *BraveSearch) Call(ctx context.Context, tc *agent.ToolContext, args map[string]any) (any, error) {
	query := strings.TrimSpace(agent.StringArg(args, "query"))
	if query == "" {
		return agent.Failure("A search query is required."), nil
	}
	text, err := b.Search(ctx, query)
	if err != nil {
		return agent.Failuref("Web search failed: %v", err), nil
	}
	return agent.Success(text), nil
}

// Search executes the search and formats the results as numbered text.
func (b *BraveSearch) Search(ctx context.Context, query string) (string, error) {
	results, err := b.Results(ctx, query)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. Title: %s\nURL: %s\nDescription: %s\n\n", i+1, r.Title, r.URL, r.Description)
	}
	if sb.Len() == 0 {
		return "No results found", nil
	}
	return sb.String(), nil
}

// Results executes the search.
func (b *BraveSearch) Results(ctx context.Context, query string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty query")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(b.Count))
	if b.Country != "" {
		params.Set("country", b.Country)
	}
	if b.Lang != "" {
		params.Set("search_lang", b.Lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave api returned status: %d", resp.StatusCode)
	}

	var result braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Web.Results, nil
}

// Package tool provides ready-to-use tools for agents.
//
// # Available Tools
//
// ## Brave Search
// Search the web through the Brave Search API. BraveSearch can be called
// directly or handed to an agent, where it is declared as web_search:
//
//	search, err := tool.NewBraveSearch(cfg.Search.BraveAPIKey, tool.WithBraveCount(5))
//	if err != nil {
//		return err
//	}
//	results, err := search.Call(ctx, "latest developments in quantum computing")
//
// ## Web Fetch
// Download a page and return its visible text, scripts and styles removed:
//
//	text, err := tool.WebFetch(ctx, "https://example.com")
//
// ## Markdown rendering
// Turn model-written markdown into sanitized HTML:
//
//	page := tool.RenderMarkdown(draft)
package tool

// ABOUTME: Tool server providing web search and URL content extraction.
// ABOUTME: Results are deterministic samples; nothing leaves the process.

package servers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/tool"
)

// WebSearchServer exposes the web_search and url_extract tools.
type WebSearchServer struct {
	*mcp.BaseServer
}

var _ mcp.Server = (*WebSearchServer)(nil)

// NewWebSearchServer creates the bundled web search server.
func NewWebSearchServer(logger *slog.Logger) *WebSearchServer {
	return &WebSearchServer{
		BaseServer: mcp.NewBaseServer(
			"web_search_server",
			"1.0.0",
			"Provides web search and content extraction tools for agents",
			[]string{"search", "web_access", "content_extraction"},
			logger,
		),
	}
}

// RegisterTools returns the server's tools for manager registration.
func (s *WebSearchServer) RegisterTools(ctx context.Context) ([]*tool.Tool, error) {
	return []*tool.Tool{
		tool.New(tool.Definition{
			Name:        "web_search",
			Description: "Search the web for information on any topic",
			Schema: tool.MustSchema(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query"},
					"max_results": {"type": "integer", "description": "Maximum number of results to return", "default": 5, "minimum": 1, "maximum": 20},
					"safe_search": {"type": "boolean", "description": "Enable safe search filtering", "default": true}
				},
				"required": ["query"]
			}`),
			Capabilities: []string{"search", "web_access"},
		}, s.webSearch),
		tool.New(tool.Definition{
			Name:        "url_extract",
			Description: "Extract text content from a web page URL",
			Schema: tool.MustSchema(`{
				"type": "object",
				"properties": {
					"url": {"type": "string", "description": "The URL to extract content from"},
					"extract_links": {"type": "boolean", "description": "Whether to extract links from the page", "default": false},
					"max_length": {"type": "integer", "description": "Maximum length of extracted text", "default": 5000, "minimum": 100, "maximum": 50000}
				},
				"required": ["url"]
			}`),
			Capabilities: []string{"web_access", "content_extraction"},
		}, s.urlExtract),
	}, nil
}

func (s *WebSearchServer) webSearch(ctx context.Context, req *tool.Request) (any, error) {
	start := time.Now()
	query := stringParam(req.Parameters, "query", "")
	maxResults := intParam(req.Parameters, "max_results", 5)
	safeSearch := boolParam(req.Parameters, "safe_search", true)

	s.Logger().Debug("executing web search", "query", query, "max_results", maxResults)

	// Synthesized results are capped at five regardless of the requested
	// maximum.
	count := maxResults
	if count > 5 {
		count = 5
	}
	now := time.Now().UTC().Format(time.RFC3339)
	results := make([]map[string]any, 0, 5)
	for i := 1; i <= count; i++ {
		results = append(results, map[string]any{
			"title":     fmt.Sprintf("Result %d for '%s'", i, query),
			"url":       fmt.Sprintf("https://example%d.com/search-result", i),
			"snippet":   fmt.Sprintf("This is a sample search result snippet for query '%s'. It contains relevant information about the topic.", query),
			"domain":    fmt.Sprintf("example%d.com", i),
			"timestamp": now,
		})
	}

	return map[string]any{
		"query":               query,
		"results":             results,
		"total_results":       len(results),
		"search_time":         time.Since(start).Seconds(),
		"safe_search_enabled": safeSearch,
	}, nil
}

func (s *WebSearchServer) urlExtract(ctx context.Context, req *tool.Request) (any, error) {
	start := time.Now()
	url := stringParam(req.Parameters, "url", "")
	extractLinks := boolParam(req.Parameters, "extract_links", false)
	maxLength := intParam(req.Parameters, "max_length", 5000)

	s.Logger().Debug("extracting url content", "url", url)

	content := strings.TrimSpace(strings.Repeat(fmt.Sprintf("This is sample extracted content from %s. ", url), 20))

	result := map[string]any{
		"url":             url,
		"title":           "Sample Web Page Title",
		"content":         content,
		"word_count":      len(strings.Fields(content)),
		"language":        "en",
		"extraction_time": time.Since(start).Seconds(),
	}
	if extractLinks {
		result["links"] = []map[string]any{
			{"text": "Link 1", "url": "https://example.com/link1"},
			{"text": "Link 2", "url": "https://example.com/link2"},
		}
	}
	if maxLength > 0 && len(content) > maxLength {
		result["content"] = content[:maxLength] + "..."
		result["truncated"] = true
	}
	return result, nil
}

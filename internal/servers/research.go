// ABOUTME: Tool server conducting synthesized topic research at three depth levels.
// ABOUTME: Findings grow with depth: shallow one source, medium two, deep three.

package servers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/tool"
)

// ResearchServer exposes the research_topic tool.
type ResearchServer struct {
	*mcp.BaseServer
}

var _ mcp.Server = (*ResearchServer)(nil)

// NewResearchServer creates the bundled research server.
func NewResearchServer(logger *slog.Logger) *ResearchServer {
	return &ResearchServer{
		BaseServer: mcp.NewBaseServer(
			"research_server",
			"1.0.0",
			"Provides advanced research and analysis tools",
			[]string{"research", "analysis", "synthesis"},
			logger,
		),
	}
}

// RegisterTools returns the server's tools for manager registration.
func (s *ResearchServer) RegisterTools(ctx context.Context) ([]*tool.Tool, error) {
	return []*tool.Tool{
		tool.New(tool.Definition{
			Name:        "research_topic",
			Description: "Conduct comprehensive research on a topic",
			Schema: tool.MustSchema(`{
				"type": "object",
				"properties": {
					"topic": {"type": "string", "description": "The research topic"},
					"depth": {"type": "string", "enum": ["shallow", "medium", "deep"], "description": "Research depth level", "default": "medium"},
					"sources": {"type": "array", "items": {"type": "string"}, "description": "Preferred source types", "default": ["academic", "news", "web"]}
				},
				"required": ["topic"]
			}`),
			Capabilities: []string{"research", "synthesis", "analysis"},
		}, s.researchTopic),
	}, nil
}

func (s *ResearchServer) researchTopic(ctx context.Context, req *tool.Request) (any, error) {
	start := time.Now()
	topic := stringParam(req.Parameters, "topic", "")
	depth := stringParam(req.Parameters, "depth", "medium")
	sources := stringSliceParam(req.Parameters, "sources", []string{"academic", "news", "web"})

	s.Logger().Debug("researching topic", "topic", topic, "depth", depth)

	findings := []map[string]any{
		{
			"source":          "Academic Paper",
			"title":           fmt.Sprintf("Research on %s", topic),
			"summary":         fmt.Sprintf("Key findings about %s from academic research...", topic),
			"relevance_score": 0.95,
		},
	}
	if depth == "medium" || depth == "deep" {
		findings = append(findings, map[string]any{
			"source":          "News Article",
			"title":           fmt.Sprintf("Latest developments in %s", topic),
			"summary":         fmt.Sprintf("Recent news and updates about %s...", topic),
			"relevance_score": 0.87,
		})
	}
	if depth == "deep" {
		findings = append(findings, map[string]any{
			"source":          "Web Source",
			"title":           fmt.Sprintf("Community perspectives on %s", topic),
			"summary":         fmt.Sprintf("Practitioner discussion and field reports about %s...", topic),
			"relevance_score": 0.74,
		})
	}

	return map[string]any{
		"topic":            topic,
		"research_depth":   depth,
		"sources_searched": sources,
		"findings":         findings,
		"synthesis":        fmt.Sprintf("Based on research, %s appears to be a significant area with multiple perspectives...", topic),
		"research_time":    time.Since(start).Seconds(),
	}, nil
}

// ABOUTME: Summarizer agent: style-aware document summaries through the model layer.
// ABOUTME: Degrades to a leading-sentences extractive summary without a provider.

package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389/quorum-hub/internal/agent"
	"github.com/2389/quorum-hub/internal/model"
)

const (
	// summaryWordLimit caps every summary regardless of how the model
	// behaves.
	summaryWordLimit = 500

	// extractiveSentences is how many leading sentences the no-model
	// fallback keeps.
	extractiveSentences = 3

	summarizerSystemPrompt = "You are a professional summarization expert. You excel at creating accurate, concise, and well-structured summaries that capture the essence of any text while maintaining clarity and readability."
)

var summaryStyles = map[string]string{
	"concise":       "Write a tight, minimal summary covering only the essential points.",
	"detailed":      "Write a thorough summary that preserves supporting detail and nuance.",
	"bullet_points": "Present the summary as clear, concise bullet points.",
	"executive":     "Write an executive summary focusing on key decisions, outcomes, and actionable items.",
}

var documentHints = map[string]string{
	"academic":  "Focus on methodology, findings, and conclusions.",
	"news":      "Highlight the who, what, when, where, and why.",
	"technical": "Emphasize key technical details and implementation aspects.",
	"meeting":   "Focus on decisions made, action items, and next steps.",
	"general":   "Provide a balanced overview of the main points.",
}

// Prefixes models like to bolt onto summaries; stripped before returning.
var summaryPrefixes = []string{
	"Here's a summary:",
	"Here is the summary:",
	"The summary is:",
	"Summary:",
}

// SummarizerAgent condenses the message content into a summary. The style
// and document type come from the request's extra parameters
// ("summary_style", "document_type").
type SummarizerAgent struct {
	*agent.Core

	models *model.Manager
}

var (
	_ agent.Agent    = (*SummarizerAgent)(nil)
	_ agent.Streamer = (*SummarizerAgent)(nil)
)

// NewSummarizerAgent builds the text summarization agent.
func NewSummarizerAgent(deps Deps) *SummarizerAgent {
	provider, modelID := defaultModelIdentity(deps.Models)
	core := agent.NewCore(agent.Info{
		ID:          "summarizer_agent",
		Name:        "Document Summarizer",
		Description: "Summarizes documents, articles, and text content with an eye for accuracy and concision",
		Type:        "text",
		Capabilities: []string{
			"document_summarization",
			"article_summarization",
			"conversation_summarization",
			"key_points_extraction",
			"executive_summary_generation",
		},
		ModelProvider: provider,
		ModelName:     modelID,
	}, agent.CoreConfig{Logger: deps.Logger, MaxMessages: deps.MaxHistory})
	return &SummarizerAgent{Core: core, models: deps.Models}
}

// Process treats the whole message as the content to summarize.
func (s *SummarizerAgent) Process(ctx context.Context, message, sessionID string, extra map[string]any) (*agent.Response, error) {
	start, err := s.Begin(sessionID, message)
	if err != nil {
		return nil, err
	}
	resp, err := s.summarize(ctx, message, extra)
	return s.Finish(resp, sessionID, start, err)
}

func (s *SummarizerAgent) ProcessStream(ctx context.Context, message, sessionID string, extra map[string]any) (<-chan agent.Chunk, error) {
	resp, err := s.Process(ctx, message, sessionID, extra)
	if err != nil {
		return nil, err
	}
	return agent.ChunkStream(ctx, resp), nil
}

func (s *SummarizerAgent) summarize(ctx context.Context, message string, extra map[string]any) (*agent.Response, error) {
	style := stringExtra(extra, "summary_style", "concise")
	if _, ok := summaryStyles[style]; !ok {
		style = "concise"
	}
	docType := stringExtra(extra, "document_type", "general")

	var summary, modelID string
	if provider, ok := defaultProvider(s.models); ok {
		// The prompt carries the full content, so no history rides along.
		result, err := provider.Generate(ctx, &model.Request{
			System: summarizerSystemPrompt,
			Messages: []model.ChatMessage{
				{Role: model.RoleUser, Content: summarizationPrompt(message, summaryWordLimit, style, docType)},
			},
			Temperature: 0.3,
			MaxTokens:   summaryWordLimit * 2,
		})
		if err != nil {
			return nil, fmt.Errorf("summarize: %w", err)
		}
		summary = result.Text
		modelID = result.Model
	} else {
		summary = extractiveSummary(message)
	}

	summary = postProcessSummary(summary, style)

	originalWords := len(strings.Fields(message))
	summaryWords := len(strings.Fields(summary))
	meta := map[string]any{
		"summary_style":  style,
		"document_type":  docType,
		"original_words": originalWords,
		"summary_words":  summaryWords,
	}
	if summaryWords > 0 {
		meta["compression_ratio"] = float64(originalWords) / float64(summaryWords)
	}
	if modelID != "" {
		meta["model"] = modelID
	}
	return &agent.Response{Content: summary, Metadata: meta}, nil
}

func summarizationPrompt(content string, wordLimit int, style, docType string) string {
	hint, ok := documentHints[docType]
	if !ok {
		hint = documentHints["general"]
	}
	return fmt.Sprintf(`Summarize the following content.

Requirements:
- Maximum length: approximately %d words
- Style: %s
- Document type: %s. %s
- Focus on the most important and relevant information
- Do not add information that is not present in the original
- The summary must stand on its own without the original text

Content to summarize:
%s`, wordLimit, summaryStyles[style], docType, hint, content)
}

// postProcessSummary strips boilerplate prefixes, reshapes bullet output
// when asked for, and enforces the word cap.
func postProcessSummary(summary, style string) string {
	summary = strings.TrimSpace(summary)
	for _, prefix := range summaryPrefixes {
		if strings.HasPrefix(summary, prefix) {
			summary = strings.TrimSpace(strings.TrimPrefix(summary, prefix))
			break
		}
	}

	if style == "bullet_points" && !strings.HasPrefix(summary, "•") && !strings.HasPrefix(summary, "-") {
		sentences := strings.Split(summary, ". ")
		if len(sentences) > 1 {
			lines := make([]string, 0, len(sentences))
			for _, sentence := range sentences {
				sentence = strings.TrimSpace(strings.TrimSuffix(sentence, "."))
				if sentence != "" {
					lines = append(lines, "• "+sentence)
				}
			}
			summary = strings.Join(lines, "\n")
		}
	}

	return capWords(summary, summaryWordLimit)
}

// extractiveSummary is the no-model fallback: the leading sentences, the
// classic extractive baseline.
func extractiveSummary(content string) string {
	content = strings.TrimSpace(content)
	sentences := strings.SplitAfter(content, ". ")
	if len(sentences) <= extractiveSentences {
		return content
	}
	return strings.TrimSpace(strings.Join(sentences[:extractiveSentences], ""))
}

func capWords(s string, limit int) string {
	words := strings.Fields(s)
	if len(words) <= limit {
		return s
	}
	return strings.Join(words[:limit], " ") + " ..."
}

func stringExtra(extra map[string]any, key, def string) string {
	if s, ok := extra[key].(string); ok && s != "" {
		return s
	}
	return def
}

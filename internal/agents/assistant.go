// ABOUTME: General assistant agent: model-backed answers with tool-assisted search.
// ABOUTME: Falls back to a deterministic reply when no model provider is configured.

package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389/quorum-hub/internal/agent"
	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/model"
)

const (
	assistantSystemPrompt = "You are a helpful, knowledgeable assistant. Provide accurate, informative responses. Be concise but thorough."

	// assistantContextWindow bounds how much session history rides along
	// on each model call.
	assistantContextWindow = 10
)

// Substrings that suggest the user wants fresh information from the web.
var searchCues = []string{"search", "find", "look up", "latest", "current", "news"}

// AssistantAgent answers general questions through the default model
// provider, consulting the web_search tool first when the message asks for
// it. Without a provider it degrades to a fixed acknowledgement so the hub
// stays usable offline.
type AssistantAgent struct {
	*agent.Core

	tools  *mcp.Manager
	models *model.Manager
}

var (
	_ agent.Agent    = (*AssistantAgent)(nil)
	_ agent.Streamer = (*AssistantAgent)(nil)
)

// NewAssistantAgent builds the general-purpose assistant.
func NewAssistantAgent(deps Deps) *AssistantAgent {
	provider, modelID := defaultModelIdentity(deps.Models)
	core := agent.NewCore(agent.Info{
		ID:            "general_assistant",
		Name:          "General Assistant",
		Description:   "A versatile assistant for general questions, tasks, and research",
		Type:          "general",
		Capabilities:  []string{"text_generation", "question_answering", "task_assistance", "web_search"},
		ModelProvider: provider,
		ModelName:     modelID,
	}, agent.CoreConfig{
		Logger:      deps.Logger,
		MaxMessages: deps.MaxHistory,
		Tools:       []string{"web_search"},
	})
	return &AssistantAgent{Core: core, tools: deps.Tools, models: deps.Models}
}

func (a *AssistantAgent) Process(ctx context.Context, message, sessionID string, extra map[string]any) (*agent.Response, error) {
	start, err := a.Begin(sessionID, message)
	if err != nil {
		return nil, err
	}
	resp, err := a.respond(ctx, message, sessionID)
	return a.Finish(resp, sessionID, start, err)
}

// ProcessStream generates the full response, then emits it as a word-wise
// chunk stream with one terminal chunk.
func (a *AssistantAgent) ProcessStream(ctx context.Context, message, sessionID string, extra map[string]any) (<-chan agent.Chunk, error) {
	resp, err := a.Process(ctx, message, sessionID, extra)
	if err != nil {
		return nil, err
	}
	return agent.ChunkStream(ctx, resp), nil
}

func (a *AssistantAgent) respond(ctx context.Context, message, sessionID string) (*agent.Response, error) {
	invoked := []string{}
	var searchSection string
	if a.tools != nil && looksLikeSearch(message) {
		if section, ok := a.webSearch(ctx, message); ok {
			searchSection = section
			invoked = append(invoked, "web_search")
		}
	}

	content, modelID, err := a.generate(ctx, message, sessionID, searchSection)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"tools_invoked": invoked}
	if modelID != "" {
		meta["model"] = modelID
	}
	return &agent.Response{Content: content, Metadata: meta}, nil
}

// webSearch consults the tool router. Search failures are logged and
// swallowed: the assistant answers without results rather than failing the
// whole interaction over a tool problem.
func (a *AssistantAgent) webSearch(ctx context.Context, message string) (string, bool) {
	result, err := a.tools.CallTool(ctx, "web_search", map[string]any{
		"query":       message,
		"max_results": 3,
	})
	if err != nil {
		a.Logger().Warn("web search failed, answering without results", "error", err)
		return "", false
	}
	section := formatSearchResults(result)
	return section, section != ""
}

func (a *AssistantAgent) generate(ctx context.Context, message, sessionID, searchSection string) (content, modelID string, err error) {
	provider, ok := defaultProvider(a.models)
	if !ok {
		fallback := fmt.Sprintf("I understand you're asking about: %q. As a general assistant, I'm here to help with various tasks and questions.", message)
		return searchSection + fallback, "", nil
	}

	result, err := provider.Generate(ctx, &model.Request{
		System:      assistantSystem(searchSection),
		Messages:    a.recentMessages(sessionID),
		Temperature: 0.7,
	})
	if err != nil {
		return "", "", fmt.Errorf("assistant generation: %w", err)
	}
	return searchSection + result.Text, result.Model, nil
}

// recentMessages returns the tail of the session history as model messages.
// Begin has already recorded the current user message, so the slice always
// ends with it.
func (a *AssistantAgent) recentMessages(sessionID string) []model.ChatMessage {
	history := a.History(sessionID)
	if len(history) > assistantContextWindow {
		history = history[len(history)-assistantContextWindow:]
	}
	msgs := make([]model.ChatMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, model.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return msgs
}

func assistantSystem(searchSection string) string {
	if searchSection == "" {
		return assistantSystemPrompt
	}
	return assistantSystemPrompt + "\n\nWeb search results for the user's request:\n" + searchSection
}

func looksLikeSearch(message string) bool {
	lower := strings.ToLower(message)
	for _, cue := range searchCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// formatSearchResults renders the top search hits as a numbered list.
// The result arrives as the web_search tool's raw document; anything
// unexpected formats to the empty string.
func formatSearchResults(result any) string {
	doc, ok := result.(map[string]any)
	if !ok {
		return ""
	}

	var items []map[string]any
	switch rs := doc["results"].(type) {
	case []map[string]any:
		items = rs
	case []any:
		for _, r := range rs {
			if m, ok := r.(map[string]any); ok {
				items = append(items, m)
			}
		}
	}
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Here's what I found online:\n")
	for i, item := range items {
		if i == 3 {
			break
		}
		title, _ := item["title"].(string)
		snippet, _ := item["snippet"].(string)
		fmt.Fprintf(&b, "%d. %s\n   %s\n\n", i+1, title, snippet)
	}
	return b.String()
}

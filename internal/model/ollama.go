// ABOUTME: Ollama provider speaking the local daemon's JSON chat API.
// ABOUTME: Plain net/http client; the daemon has no official Go SDK to wrap.

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaBaseURL is where a locally installed daemon listens.
const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaOptions configures the Ollama provider.
type OllamaOptions struct {
	Model       string
	BaseURL     string
	Temperature float64
	HTTPClient  *http.Client
}

// OllamaProvider serves generation through a local Ollama daemon.
type OllamaProvider struct {
	client *http.Client
	opts   OllamaOptions
}

var _ Provider = (*OllamaProvider)(nil)

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model           string      `json:"model"`
	Message         ChatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int64       `json:"prompt_eval_count"`
	EvalCount       int64       `json:"eval_count"`
}

// NewOllamaProvider creates a provider for a local daemon. Local inference can
// be slow, so the default client allows two minutes per request.
func NewOllamaProvider(optFns ...func(o *OllamaOptions)) *OllamaProvider {
	opts := OllamaOptions{
		Model:       "llama3.2",
		BaseURL:     DefaultOllamaBaseURL,
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}

	return &OllamaProvider{client: client, opts: opts}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: p.opts.Model, Provider: "ollama"},
	}
}

func (p *OllamaProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	modelID := p.opts.Model
	if req.Model != "" {
		modelID = req.Model
	}
	temperature := p.opts.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}

	messages := make([]ChatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, ChatMessage{Role: RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		if m.Content != "" {
			messages = append(messages, m)
		}
	}

	payload := ollamaChatRequest{
		Model:    modelID,
		Messages: messages,
		Stream:   false,
		Options:  map[string]any{"temperature": temperature},
	}
	if req.MaxTokens > 0 {
		payload.Options["num_predict"] = req.MaxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, fmt.Errorf("ollama api error: status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var resp ollamaChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	return &Result{
		Text:  resp.Message.Content,
		Model: resp.Model,
		Usage: Usage{
			Prompt:     resp.PromptEvalCount,
			Completion: resp.EvalCount,
		},
	}, nil
}

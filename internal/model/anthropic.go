// ABOUTME: Anthropic provider backed by the official Messages API client.
// ABOUTME: Folds chat requests into message params; system prompts ride the dedicated field.

package model

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicOptions configures the Anthropic provider. Extend via functional
// options to preserve call-site stability.
type AnthropicOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// AnthropicProvider serves generation through the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	opts   AnthropicOptions
}

var _ Provider = (*AnthropicProvider)(nil)
var _ ImageDescriber = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates a provider using the official client. Without
// an explicit API key the client reads ANTHROPIC_API_KEY from the environment.
func NewAnthropicProvider(optFns ...func(o *AnthropicOptions)) *AnthropicProvider {
	opts := AnthropicOptions{
		Model:       string(anthropic.ModelClaude3_5Sonnet20241022),
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &AnthropicProvider{client: &client, opts: opts}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: p.opts.Model, Provider: "anthropic", Vision: true},
	}
}

func (p *AnthropicProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	resp, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}
	return anthropicResult(resp), nil
}

// DescribeImage sends the image as a base64 block followed by the question.
func (p *AnthropicProvider) DescribeImage(ctx context.Context, img Image, prompt string) (*Result, error) {
	if prompt == "" {
		prompt = defaultImagePrompt
	}
	encoded := base64.StdEncoding.EncodeToString(img.Data)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.opts.Model),
		MaxTokens: p.opts.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(img.MediaType, encoded),
				anthropic.NewTextBlock(prompt),
			),
		},
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}
	return anthropicResult(resp), nil
}

func (p *AnthropicProvider) buildParams(req *Request) anthropic.MessageNewParams {
	modelID := p.opts.Model
	if req.Model != "" {
		modelID = req.Model
	}
	maxTokens := p.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	temperature := p.opts.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelID),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages:    buildAnthropicMessages(req.Messages),
	}

	system := req.System
	for _, m := range req.Messages {
		// System turns embedded in history are hoisted into the system field.
		if m.Role == RoleSystem && m.Content != "" {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		}
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	return params
}

func buildAnthropicMessages(msgs []ChatMessage) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range msgs {
		if m.Content == "" || m.Role == RoleSystem {
			continue
		}
		switch m.Role {
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

func anthropicResult(resp *anthropic.Message) *Result {
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	return &Result{
		Text:  text.String(),
		Model: string(resp.Model),
		Usage: Usage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
		},
	}
}

// ABOUTME: OpenAI provider backed by the official Chat Completions client.
// ABOUTME: Supports plain chat generation and data-URL image description.

package model

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIOptions configures the OpenAI provider. BaseURL allows pointing at an
// OpenAI-compatible endpoint.
type OpenAIOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
}

// OpenAIProvider serves generation through the OpenAI Chat Completions API.
type OpenAIProvider struct {
	client *openai.Client
	opts   OpenAIOptions
}

var _ Provider = (*OpenAIProvider)(nil)
var _ ImageDescriber = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider using the official client. Without an
// explicit API key the client reads OPENAI_API_KEY from the environment.
func NewOpenAIProvider(optFns ...func(o *OpenAIOptions)) *OpenAIProvider {
	opts := OpenAIOptions{
		Model:       openai.ChatModelGPT4oMini,
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
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAIProvider{client: &client, opts: opts}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: p.opts.Model, Provider: "openai", Vision: true},
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}
	return &Result{
		Text:  resp.Choices[0].Message.Content,
		Model: string(resp.Model),
		Usage: Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
		},
	}, nil
}

// DescribeImage embeds the image as a data URL content part before the
// question.
func (p *OpenAIProvider) DescribeImage(ctx context.Context, img Image, prompt string) (*Result, error) {
	if prompt == "" {
		prompt = defaultImagePrompt
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MediaType, base64.StdEncoding.EncodeToString(img.Data))

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}
	params := openai.ChatCompletionNewParams{
		Model:               p.opts.Model,
		MaxCompletionTokens: openai.Int(p.opts.MaxTokens),
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}
	return &Result{
		Text:  resp.Choices[0].Message.Content,
		Model: string(resp.Model),
		Usage: Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (p *OpenAIProvider) buildParams(req *Request) openai.ChatCompletionNewParams {
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

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	return openai.ChatCompletionNewParams{
		Model:               modelID,
		Messages:            messages,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
}

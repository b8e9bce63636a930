// ABOUTME: Provider contract and the normalized request/result types for chat generation.
// ABOUTME: Providers adapt vendor APIs to these types; callers never see SDK structs.

package model

import (
	"context"
	"errors"
)

// Chat roles understood by every provider. Unknown roles are sent as user
// turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// defaultImagePrompt is used when an image is submitted without a question.
const defaultImagePrompt = "Describe this image in detail."

var (
	// ErrProviderNotFound reports a generation request naming an unknown
	// provider, or no provider at all when no default is configured.
	ErrProviderNotFound = errors.New("model provider not found")

	// ErrProviderExists reports a Register call reusing a provider name.
	ErrProviderExists = errors.New("model provider already registered")
)

// ChatMessage is one turn of a conversation sent to a provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a normalized generation request. Zero-valued fields fall back to
// the provider's configured defaults.
type Request struct {
	Model       string        `json:"model,omitempty"`
	System      string        `json:"system,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int64         `json:"max_tokens,omitempty"`
}

// Usage reports token consumption for a single generation.
type Usage struct {
	Prompt     int64 `json:"prompt_tokens"`
	Completion int64 `json:"completion_tokens"`
}

// Result is the completed generation returned by a provider.
type Result struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// ModelInfo describes one model a provider can serve.
type ModelInfo struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Vision   bool   `json:"vision,omitempty"`
}

// Image is a raw image handed to a vision-capable provider. Data is the
// undecoded bytes; providers handle their own wire encoding.
type Image struct {
	MediaType string
	Data      []byte
}

// Provider serves chat generation for one vendor or backend.
type Provider interface {
	// Name returns the registry key, e.g. "anthropic" or "ollama".
	Name() string

	// Models lists the models this provider is configured to serve.
	Models() []ModelInfo

	// Generate runs one chat completion to completion.
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// ImageDescriber is implemented by providers whose models accept image input.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, img Image, prompt string) (*Result, error)
}

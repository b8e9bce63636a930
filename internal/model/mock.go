// ABOUTME: In-memory mock provider with canned responses and call recording.
// ABOUTME: Serves tests and keyless local development; fully deterministic.

package model

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a deterministic Provider for tests and offline use. Canned
// responses are keyed by the last user message; unmatched prompts get an
// echoing fallback. Every call is recorded.
type MockProvider struct {
	name string

	mu        sync.Mutex
	responses map[string]string
	calls     []Request
	err       error
}

var _ Provider = (*MockProvider)(nil)
var _ ImageDescriber = (*MockProvider)(nil)

// NewMockProvider returns a mock registered under the given name, or "mock"
// when empty.
func NewMockProvider(name string) *MockProvider {
	if name == "" {
		name = "mock"
	}
	return &MockProvider{
		name:      name,
		responses: make(map[string]string),
	}
}

// AddResponse cans a completion for an exact user prompt.
func (p *MockProvider) AddResponse(prompt, response string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[prompt] = response
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (p *MockProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Calls returns a copy of every request seen so far.
func (p *MockProvider) Calls() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *MockProvider) Name() string { return p.name }

func (p *MockProvider) Models() []ModelInfo {
	return []ModelInfo{{ID: "mock-1", Provider: p.name, Vision: true}}
}

func (p *MockProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, *req)
	if p.err != nil {
		return nil, p.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt := lastUserMessage(req.Messages)
	text, ok := p.responses[prompt]
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", prompt)
	}
	return &Result{
		Text:  text,
		Model: "mock-1",
		Usage: Usage{Prompt: int64(len(prompt)), Completion: int64(len(text))},
	}, nil
}

func (p *MockProvider) DescribeImage(ctx context.Context, img Image, prompt string) (*Result, error) {
	if prompt == "" {
		prompt = defaultImagePrompt
	}
	return p.Generate(ctx, &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: fmt.Sprintf("[image %s, %d bytes] %s", img.MediaType, len(img.Data), prompt)}},
	})
}

func lastUserMessage(msgs []ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	if len(msgs) > 0 {
		return msgs[len(msgs)-1].Content
	}
	return ""
}

package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderCannedResponse(t *testing.T) {
	p := NewMockProvider("mock")
	p.AddResponse("what is the capital of France?", "Paris.")

	res, err := p.Generate(context.Background(), &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "what is the capital of France?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris.", res.Text)
	assert.Equal(t, "mock-1", res.Model)
}

func TestMockProviderFallbackEchoes(t *testing.T) {
	p := NewMockProvider("")
	assert.Equal(t, "mock", p.Name())

	res, err := p.Generate(context.Background(), &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "anything"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: anything", res.Text)
}

func TestMockProviderUsesLastUserMessage(t *testing.T) {
	p := NewMockProvider("mock")
	p.AddResponse("second", "matched")

	res, err := p.Generate(context.Background(), &Request{
		Messages: []ChatMessage{
			{Role: RoleUser, Content: "first"},
			{Role: RoleAssistant, Content: "reply"},
			{Role: RoleUser, Content: "second"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "matched", res.Text)
}

func TestMockProviderRecordsCalls(t *testing.T) {
	p := NewMockProvider("mock")

	_, err := p.Generate(context.Background(), &Request{
		System:   "be brief",
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	calls := p.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "be brief", calls[0].System)
	assert.Equal(t, "hi", calls[0].Messages[0].Content)
}

func TestMockProviderFailWith(t *testing.T) {
	p := NewMockProvider("mock")
	boom := errors.New("rate limited")
	p.FailWith(boom)

	_, err := p.Generate(context.Background(), &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	require.ErrorIs(t, err, boom)

	p.FailWith(nil)
	_, err = p.Generate(context.Background(), &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	assert.NoError(t, err)
}

func TestMockProviderDescribeImage(t *testing.T) {
	p := NewMockProvider("mock")

	res, err := p.DescribeImage(context.Background(), Image{
		MediaType: "image/png",
		Data:      []byte{0x89, 0x50, 0x4e, 0x47},
	}, "")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "image/png")
	assert.Contains(t, res.Text, defaultImagePrompt)
}

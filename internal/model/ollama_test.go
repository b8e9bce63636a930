package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:           got.Model,
			Message:         ChatMessage{Role: RoleAssistant, Content: "local hello"},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       5,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(func(o *OllamaOptions) {
		o.BaseURL = srv.URL
		o.Model = "llama3.2"
	})

	res, err := p.Generate(context.Background(), &Request{
		System:    "answer briefly",
		Messages:  []ChatMessage{{Role: RoleUser, Content: "hello"}},
		MaxTokens: 64,
	})
	require.NoError(t, err)

	assert.Equal(t, "local hello", res.Text)
	assert.Equal(t, "llama3.2", res.Model)
	assert.Equal(t, int64(12), res.Usage.Prompt)
	assert.Equal(t, int64(5), res.Usage.Completion)

	// The system prompt leads the message list and streaming stays off.
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "answer briefly", got.Messages[0].Content)
	assert.Equal(t, "hello", got.Messages[1].Content)
	assert.False(t, got.Stream)
	assert.Equal(t, float64(64), got.Options["num_predict"])
}

func TestOllamaRequestModelOverridesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "codellama", req.Model)

		json.NewEncoder(w).Encode(ollamaChatResponse{Model: req.Model, Message: ChatMessage{Role: RoleAssistant, Content: "ok"}, Done: true})
	}))
	defer srv.Close()

	p := NewOllamaProvider(func(o *OllamaOptions) { o.BaseURL = srv.URL })

	res, err := p.Generate(context.Background(), &Request{
		Model:    "codellama",
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "codellama", res.Model)
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(func(o *OllamaOptions) { o.BaseURL = srv.URL })

	_, err := p.Generate(context.Background(), &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaUnreachable(t *testing.T) {
	p := NewOllamaProvider(func(o *OllamaOptions) {
		// Closed port; the request must fail fast with a transport error.
		o.BaseURL = "http://127.0.0.1:1"
	})

	_, err := p.Generate(context.Background(), &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama request")
}

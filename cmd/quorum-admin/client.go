// ABOUTME: HTTP client for the quorum-hub JSON API.
// ABOUTME: Wraps request plumbing, error decoding, and SSE chat streams.

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2389/quorum-hub/internal/agent"
	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/tool"
)

// apiClient talks to a running hub over its JSON API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
	stream  *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		// Chat streams outlive any fixed timeout; the context bounds them.
		stream: &http.Client{},
	}
}

// apiError is a non-2xx response decoded from the hub's error body.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &apiError{Status: resp.StatusCode, Message: body.Error}
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &apiError{Status: resp.StatusCode, Message: msg}
}

// healthText fetches one of the plain-text health endpoints.
func (c *apiClient) healthText(ctx context.Context, path string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, strings.TrimSpace(string(data)), nil
}

func (c *apiClient) Servers(ctx context.Context) ([]mcp.ServerDetail, error) {
	var resp struct {
		Servers []mcp.ServerDetail `json:"servers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/servers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

func (c *apiClient) Tools(ctx context.Context, server string) ([]tool.Info, error) {
	path := "/api/tools"
	if server != "" {
		path += "?server=" + url.QueryEscape(server)
	}
	var resp struct {
		Tools []tool.Info `json:"tools"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

func (c *apiClient) Execute(ctx context.Context, req *tool.Request) (*tool.Response, error) {
	var resp tool.Response
	if err := c.do(ctx, http.MethodPost, "/api/tools/execute", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) MCPHealth(ctx context.Context) (*mcp.Health, error) {
	var resp mcp.Health
	if err := c.do(ctx, http.MethodGet, "/api/mcp/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) Agents(ctx context.Context, typeFilter, statusFilter string) ([]*agent.Snapshot, error) {
	q := url.Values{}
	if typeFilter != "" {
		q.Set("type", typeFilter)
	}
	if statusFilter != "" {
		q.Set("status", statusFilter)
	}
	path := "/api/agents"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Agents []*agent.Snapshot `json:"agents"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

func (c *apiClient) Discover(ctx context.Context, query string, limit int) ([]*agent.Snapshot, error) {
	q := url.Values{"query": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Agents []*agent.Snapshot `json:"agents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/agents/discover?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

func (c *apiClient) AgentDetail(ctx context.Context, id string) (*agent.Snapshot, *agent.Stats, error) {
	var resp struct {
		Agent *agent.Snapshot `json:"agent"`
		Stats *agent.Stats    `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/agents/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Agent, resp.Stats, nil
}

func (c *apiClient) ReloadAgent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/agents/"+url.PathEscape(id)+"/reload", nil, nil)
}

// chatRequest mirrors the hub's chat request body.
type chatRequest struct {
	AgentID   string `json:"agent_id"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// chatResponse mirrors the hub's chat response body.
type chatResponse struct {
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	SessionID string         `json:"session_id"`
}

func (c *apiClient) Chat(ctx context.Context, req chatRequest) (*chatResponse, error) {
	var resp chatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// streamEvent is one decoded SSE event from the chat stream.
type streamEvent struct {
	Event string
	Data  json.RawMessage
}

// ChatStream posts a streaming chat request and invokes fn for every
// SSE event until the hub closes the stream.
func (c *apiClient) ChatStream(ctx context.Context, req chatRequest, fn func(streamEvent) error) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/stream", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ev streamEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = json.RawMessage(strings.TrimPrefix(line, "data: "))
		case line == "":
			if ev.Event != "" {
				if err := fn(ev); err != nil {
					return err
				}
				ev = streamEvent{}
			}
		}
	}
	return sc.Err()
}

// historyMessage mirrors one entry of a session transcript.
type historyMessage struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func (c *apiClient) History(ctx context.Context, sessionID string) ([]historyMessage, error) {
	var resp struct {
		Messages []historyMessage `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID)+"/history", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// toolUsage mirrors one tool's aggregate row from the stats endpoint.
type toolUsage struct {
	ToolName      string  `json:"tool_name"`
	Executions    int64   `json:"executions"`
	Failures      int64   `json:"failures"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}

// hubStats mirrors the hub's stats response.
type hubStats struct {
	Agents         map[string]*agent.Stats `json:"agents"`
	Tools          []toolUsage             `json:"tools"`
	ActiveSessions int                     `json:"active_sessions"`
}

func (c *apiClient) Stats(ctx context.Context) (*hubStats, error) {
	var resp hubStats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// mintedToken mirrors the hub's token mint response. Token holds the
// raw secret and is shown exactly once.
type mintedToken struct {
	Token  string `json:"token"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

func (c *apiClient) MintToken(ctx context.Context, name string) (*mintedToken, error) {
	var resp mintedToken
	if err := c.do(ctx, http.MethodPost, "/api/tokens", map[string]string{"name": name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// tokenInfo mirrors one token metadata row.
type tokenInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Prefix     string `json:"prefix"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}

func (c *apiClient) ListTokens(ctx context.Context) ([]tokenInfo, error) {
	var resp struct {
		Tokens []tokenInfo `json:"tokens"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tokens", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

func (c *apiClient) RevokeToken(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tokens/"+url.PathEscape(id), nil, nil)
}

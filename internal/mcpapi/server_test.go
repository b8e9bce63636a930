// ABOUTME: Tests for the MCP endpoint covering the handshake, sessions, and tool calls.
// ABOUTME: Validates JSON-RPC error codes, isError envelope mapping, and auth handling.

package mcpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2389/quorum-hub/internal/auth"
	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/store"
	"github.com/2389/quorum-hub/internal/tool"
)

// stubToolServer is a minimal mcp.Server carrying a fixed tool set.
type stubToolServer struct {
	*mcp.BaseServer
	tools []*tool.Tool
}

func (s *stubToolServer) RegisterTools(ctx context.Context) ([]*tool.Tool, error) {
	return s.tools, nil
}

func echoTool() *tool.Tool {
	return tool.New(tool.Definition{
		Name:        "echo",
		Description: "Echoes the input text",
		Schema: tool.MustSchema(`{
			"type": "object",
			"properties": {"text": {"type": "string"}},
			"required": ["text"]
		}`),
	}, func(ctx context.Context, req *tool.Request) (any, error) {
		return map[string]any{"echo": req.Parameters["text"]}, nil
	})
}

func failingTool() *tool.Tool {
	return tool.New(tool.Definition{
		Name:        "fail",
		Description: "Always fails",
	}, func(ctx context.Context, req *tool.Request) (any, error) {
		return nil, errors.New("boom")
	})
}

func newToolManager(t *testing.T, tools ...*tool.Tool) *mcp.Manager {
	t.Helper()
	m := mcp.NewManager(mcp.ManagerConfig{})
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize manager: %v", err)
	}
	srv := &stubToolServer{
		BaseServer: mcp.NewBaseServer("stub", "1.0.0", "stub test server", []string{"testing"}, slog.Default()),
		tools:      tools,
	}
	if err := m.RegisterServer(context.Background(), srv); err != nil {
		t.Fatalf("register stub server: %v", err)
	}
	return m
}

func newTestMux(t *testing.T, cfg Config) *http.ServeMux {
	t.Helper()
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return mux
}

func postRPC(t *testing.T, mux *http.ServeMux, target string, headers map[string]string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeRPC(t *testing.T, rr *httptest.ResponseRecorder) JSONRPCResponse {
	t.Helper()
	var resp JSONRPCResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode JSON-RPC response: %v (body %q)", err, rr.Body.String())
	}
	return resp
}

// decodeResult re-marshals a JSON-RPC result into a concrete type.
func decodeResult(t *testing.T, resp JSONRPCResponse, into any) {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to re-marshal result: %v", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
}

func initSession(t *testing.T, mux *http.ServeMux, headers map[string]string) string {
	t.Helper()
	rr := postRPC(t, mux, "/mcp", headers, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("initialize returned status %d (body %q)", rr.Code, rr.Body.String())
	}
	resp := decodeRPC(t, rr)
	if resp.Error != nil {
		t.Fatalf("initialize returned JSON-RPC error: %+v", resp.Error)
	}
	sessionID := rr.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("expected Mcp-Session-Id header on initialize")
	}
	return sessionID
}

func sessionHeaders(id string) map[string]string {
	return map[string]string{"Mcp-Session-Id": id}
}

func TestInitialize(t *testing.T) {
	mux := newTestMux(t, Config{Tools: newToolManager(t, echoTool()), Version: "1.2.3"})

	rr := postRPC(t, mux, "/mcp", nil, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("Mcp-Session-Id") == "" {
		t.Error("expected Mcp-Session-Id header")
	}

	resp := decodeRPC(t, rr)
	if resp.Error != nil {
		t.Fatalf("unexpected JSON-RPC error: %+v", resp.Error)
	}
	if string(resp.ID) != "1" {
		t.Errorf("expected id 1 echoed back, got %s", resp.ID)
	}

	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	decodeResult(t, resp, &result)

	if result.ProtocolVersion != latestProtocolVersion {
		t.Errorf("expected protocol version %q, got %q", latestProtocolVersion, result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "quorum-hub" {
		t.Errorf("expected serverInfo name quorum-hub, got %q", result.ServerInfo.Name)
	}
	if result.ServerInfo.Version != "1.2.3" {
		t.Errorf("expected serverInfo version 1.2.3, got %q", result.ServerInfo.Version)
	}
}

func TestSessionValidation(t *testing.T) {
	mux := newTestMux(t, Config{Tools: newToolManager(t, echoTool())})

	t.Run("missing session id", func(t *testing.T) {
		rr := postRPC(t, mux, "/mcp", nil, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("unknown session id", func(t *testing.T) {
		rr := postRPC(t, mux, "/mcp", sessionHeaders("nope"), `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("unsupported protocol version header", func(t *testing.T) {
		sessionID := initSession(t, mux, nil)
		headers := sessionHeaders(sessionID)
		headers["Mcp-Protocol-Version"] = "1999-01-01"
		rr := postRPC(t, mux, "/mcp", headers, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestToolsList(t *testing.T) {
	mux := newTestMux(t, Config{Tools: newToolManager(t, echoTool(), failingTool())})
	sessionID := initSession(t, mux, nil)

	rr := postRPC(t, mux, "/mcp", sessionHeaders(sessionID), `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	resp := decodeRPC(t, rr)
	if resp.Error != nil {
		t.Fatalf("unexpected JSON-RPC error: %+v", resp.Error)
	}

	var result ListToolsResult
	decodeResult(t, resp, &result)

	if len(result.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(result.Tools))
	}
	// AvailableTools sorts by name: echo before fail.
	if result.Tools[0].Name != "echo" || result.Tools[1].Name != "fail" {
		t.Errorf("expected [echo fail], got [%s %s]", result.Tools[0].Name, result.Tools[1].Name)
	}
	if result.Tools[0].Description != "Echoes the input text" {
		t.Errorf("unexpected description %q", result.Tools[0].Description)
	}
	if result.Tools[0].InputSchema["type"] != "object" {
		t.Errorf("expected object input schema, got %v", result.Tools[0].InputSchema)
	}
	// A tool with no schema still gets a valid one.
	if result.Tools[1].InputSchema["type"] != "object" {
		t.Errorf("expected default object schema for schemaless tool, got %v", result.Tools[1].InputSchema)
	}
}

func TestToolsCall(t *testing.T) {
	mux := newTestMux(t, Config{Tools: newToolManager(t, echoTool(), failingTool())})
	sessionID := initSession(t, mux, nil)
	headers := sessionHeaders(sessionID)

	t.Run("successful call returns text content", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hello"}}}`
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", headers, body))
		if resp.Error != nil {
			t.Fatalf("unexpected JSON-RPC error: %+v", resp.Error)
		}

		var result CallToolResult
		decodeResult(t, resp, &result)

		if result.IsError {
			t.Fatalf("expected success, got isError with content %+v", result.Content)
		}
		if len(result.Content) != 1 || result.Content[0].Type != "text" {
			t.Fatalf("expected one text content block, got %+v", result.Content)
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(result.Content[0].Text), &payload); err != nil {
			t.Fatalf("content text is not valid JSON: %v", err)
		}
		if payload["echo"] != "hello" {
			t.Errorf("expected echoed text, got %v", payload)
		}
	})

	t.Run("tool failure becomes isError content", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"fail","arguments":{}}}`
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", headers, body))
		if resp.Error != nil {
			t.Fatalf("tool failure must not be a JSON-RPC error, got %+v", resp.Error)
		}

		var result CallToolResult
		decodeResult(t, resp, &result)

		if !result.IsError {
			t.Fatal("expected isError result")
		}
		if len(result.Content) != 1 || !strings.Contains(result.Content[0].Text, "boom") {
			t.Errorf("expected failure text mentioning boom, got %+v", result.Content)
		}
	})

	t.Run("invalid parameters become isError content", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"echo","arguments":{}}}`
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", headers, body))

		var result CallToolResult
		decodeResult(t, resp, &result)

		if !result.IsError {
			t.Fatal("expected isError result for schema violation")
		}
		if !strings.Contains(result.Content[0].Text, "invalid parameters") {
			t.Errorf("expected validation failure text, got %q", result.Content[0].Text)
		}
	})

	t.Run("unknown tool is invalid params", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"nope"}}`
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", headers, body))
		if resp.Error == nil || resp.Error.Code != JSONRPCInvalidParams {
			t.Fatalf("expected error code %d, got %+v", JSONRPCInvalidParams, resp.Error)
		}
		if resp.Error.Message != "tool not found" {
			t.Errorf("expected 'tool not found', got %q", resp.Error.Message)
		}
	})

	t.Run("missing tool name is invalid params", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"arguments":{}}}`
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", headers, body))
		if resp.Error == nil || resp.Error.Code != JSONRPCInvalidParams {
			t.Fatalf("expected error code %d, got %+v", JSONRPCInvalidParams, resp.Error)
		}
	})

	t.Run("null arguments are tolerated", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"fail","arguments":null}}`
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", headers, body))
		if resp.Error != nil {
			t.Fatalf("null arguments should not be a protocol error, got %+v", resp.Error)
		}
	})
}

func TestPing(t *testing.T) {
	mux := newTestMux(t, Config{Tools: newToolManager(t, echoTool())})
	sessionID := initSession(t, mux, nil)

	resp := decodeRPC(t, postRPC(t, mux, "/mcp", sessionHeaders(sessionID), `{"jsonrpc":"2.0","id":9,"method":"ping"}`))
	if resp.Error != nil {
		t.Fatalf("unexpected JSON-RPC error: %+v", resp.Error)
	}
}

func TestProtocolErrors(t *testing.T) {
	mux := newTestMux(t, Config{Tools: newToolManager(t, echoTool())})

	t.Run("parse error", func(t *testing.T) {
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", nil, `not json`))
		if resp.Error == nil || resp.Error.Code != JSONRPCParseError {
			t.Errorf("expected error code %d, got %+v", JSONRPCParseError, resp.Error)
		}
	})

	t.Run("wrong jsonrpc version", func(t *testing.T) {
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", nil, `{"jsonrpc":"1.0","id":1,"method":"initialize"}`))
		if resp.Error == nil || resp.Error.Code != JSONRPCInvalidRequest {
			t.Errorf("expected error code %d, got %+v", JSONRPCInvalidRequest, resp.Error)
		}
	})

	t.Run("method not found", func(t *testing.T) {
		sessionID := initSession(t, mux, nil)
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", sessionHeaders(sessionID), `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`))
		if resp.Error == nil || resp.Error.Code != JSONRPCMethodNotFound {
			t.Errorf("expected error code %d, got %+v", JSONRPCMethodNotFound, resp.Error)
		}
	})

	t.Run("body too large", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"pad":"` +
			strings.Repeat("x", MaxRequestBodySize) + `"}}`
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", nil, body))
		if resp.Error == nil || resp.Error.Code != JSONRPCInvalidRequest {
			t.Errorf("expected error code %d, got %+v", JSONRPCInvalidRequest, resp.Error)
		}
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status 405, got %d", rr.Code)
		}
	})
}

func TestNotifications(t *testing.T) {
	mux := newTestMux(t, Config{Tools: newToolManager(t, echoTool())})
	sessionID := initSession(t, mux, nil)

	t.Run("notification returns 202", func(t *testing.T) {
		rr := postRPC(t, mux, "/mcp", sessionHeaders(sessionID), `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
		if rr.Code != http.StatusAccepted {
			t.Errorf("expected status 202, got %d", rr.Code)
		}
		if rr.Body.Len() != 0 {
			t.Errorf("expected empty body, got %q", rr.Body.String())
		}
	})

	t.Run("null id counts as notification", func(t *testing.T) {
		rr := postRPC(t, mux, "/mcp", sessionHeaders(sessionID), `{"jsonrpc":"2.0","id":null,"method":"tools/list"}`)
		if rr.Code != http.StatusAccepted {
			t.Errorf("expected status 202, got %d", rr.Code)
		}
	})
}

func TestSessionTermination(t *testing.T) {
	mux := newTestMux(t, Config{Tools: newToolManager(t, echoTool())})
	sessionID := initSession(t, mux, nil)

	t.Run("DELETE without session id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("DELETE terminates the session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
		req.Header.Set("Mcp-Session-Id", sessionID)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rr.Code)
		}

		// Session is gone afterwards.
		after := postRPC(t, mux, "/mcp", sessionHeaders(sessionID), `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
		if after.Code != http.StatusNotFound {
			t.Errorf("expected status 404 after termination, got %d", after.Code)
		}
	})
}

func TestAuthentication(t *testing.T) {
	mockStore := store.NewMockStore()
	authn := auth.NewAuthenticator(auth.Config{
		JWTSecret: "0123456789abcdef0123456789abcdef",
		Store:     mockStore,
		Logger:    slog.Default(),
	})
	mux := newTestMux(t, Config{Tools: newToolManager(t, echoTool()), Auth: authn})

	jwt, err := authn.MintJWT("alice", time.Hour)
	if err != nil {
		t.Fatalf("mint jwt: %v", err)
	}
	rawToken, _, err := auth.MintAPIToken(context.Background(), mockStore, "ci-client")
	if err != nil {
		t.Fatalf("mint api token: %v", err)
	}

	t.Run("initialize without credential is rejected", func(t *testing.T) {
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", nil, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`))
		if resp.Error == nil || resp.Error.Code != JSONRPCInvalidRequest {
			t.Fatalf("expected error code %d, got %+v", JSONRPCInvalidRequest, resp.Error)
		}
		if resp.Error.Message != "authentication required" {
			t.Errorf("expected 'authentication required', got %q", resp.Error.Message)
		}
	})

	t.Run("initialize with garbage token is rejected", func(t *testing.T) {
		headers := map[string]string{"Authorization": "Bearer garbage"}
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", headers, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`))
		if resp.Error == nil || resp.Error.Message != "invalid or expired token" {
			t.Errorf("expected 'invalid or expired token', got %+v", resp.Error)
		}
	})

	t.Run("bearer JWT is accepted", func(t *testing.T) {
		sessionID := initSession(t, mux, map[string]string{"Authorization": "Bearer " + jwt})

		// Later requests ride on the session, no credential needed.
		resp := decodeRPC(t, postRPC(t, mux, "/mcp", sessionHeaders(sessionID), `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
		if resp.Error != nil {
			t.Errorf("unexpected JSON-RPC error: %+v", resp.Error)
		}
	})

	t.Run("token in path is accepted", func(t *testing.T) {
		rr := postRPC(t, mux, "/mcp/"+rawToken, nil, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
		resp := decodeRPC(t, rr)
		if resp.Error != nil {
			t.Fatalf("unexpected JSON-RPC error: %+v", resp.Error)
		}
		if rr.Header().Get("Mcp-Session-Id") == "" {
			t.Error("expected session header for path token initialize")
		}
	})

	t.Run("token in query is accepted", func(t *testing.T) {
		rr := postRPC(t, mux, "/mcp?token="+rawToken, nil, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
		resp := decodeRPC(t, rr)
		if resp.Error != nil {
			t.Fatalf("unexpected JSON-RPC error: %+v", resp.Error)
		}
	})

	t.Run("DELETE requires the owning credential", func(t *testing.T) {
		headers := map[string]string{"Authorization": "Bearer " + jwt}
		sessionID := initSession(t, mux, headers)

		req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
		req.Header.Set("Mcp-Session-Id", sessionID)
		req.Header.Set("Authorization", "Bearer "+rawToken)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("expected status 403 for mismatched credential, got %d", rr.Code)
		}

		req = httptest.NewRequest(http.MethodDelete, "/mcp", nil)
		req.Header.Set("Mcp-Session-Id", sessionID)
		req.Header.Set("Authorization", "Bearer "+jwt)
		rr = httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Errorf("expected status 204 for owner delete, got %d", rr.Code)
		}
	})
}

func TestNewServerValidation(t *testing.T) {
	if _, err := NewServer(Config{}); err == nil {
		t.Error("expected error when tool manager is nil")
	}

	srv, err := NewServer(Config{Tools: newToolManager(t, echoTool())})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv == nil {
		t.Fatal("expected server")
	}
}

func TestResultText(t *testing.T) {
	t.Run("string passes through", func(t *testing.T) {
		text, err := resultText("plain output")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "plain output" {
			t.Errorf("expected raw string, got %q", text)
		}
	})

	t.Run("map is JSON encoded", func(t *testing.T) {
		text, err := resultText(map[string]any{"count": 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != `{"count":2}` {
			t.Errorf("expected JSON encoding, got %q", text)
		}
	})
}

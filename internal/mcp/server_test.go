// ABOUTME: Tests for BaseServer covering execution envelopes, lifecycle, and metrics.
// ABOUTME: Validates the failure boundary behavior for unknown tools, bad params, and panics.

package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/2389/quorum-hub/internal/tool"
)

// echoTool returns a tool that echoes its required "text" parameter.
func echoTool(name string) *tool.Tool {
	return tool.New(tool.Definition{
		Name:        name,
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

// failingTool returns a tool whose handler always errors.
func failingTool(name string) *tool.Tool {
	return tool.New(tool.Definition{
		Name:        name,
		Description: "Always fails",
	}, func(ctx context.Context, req *tool.Request) (any, error) {
		return nil, errors.New("boom")
	})
}

// panickyTool returns a tool whose handler panics.
func panickyTool(name string) *tool.Tool {
	return tool.New(tool.Definition{
		Name:        name,
		Description: "Always panics",
	}, func(ctx context.Context, req *tool.Request) (any, error) {
		panic("handler exploded")
	})
}

// stubServer is a minimal Server built on BaseServer for testing.
type stubServer struct {
	*BaseServer
	registerTools []*tool.Tool
	registerErr   error
	registerCalls int
}

func newStubServer(name string, tools ...*tool.Tool) *stubServer {
	return &stubServer{
		BaseServer:    NewBaseServer(name, "1.0.0", name+" test server", []string{"testing"}, slog.Default()),
		registerTools: tools,
	}
}

func (s *stubServer) RegisterTools(ctx context.Context) ([]*tool.Tool, error) {
	s.registerCalls++
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return s.registerTools, nil
}

func TestBaseServerExecute(t *testing.T) {
	newServer := func(tools ...*tool.Tool) *stubServer {
		srv := newStubServer("echo-server", tools...)
		for _, tl := range tools {
			srv.AddTool(tl)
		}
		return srv
	}

	t.Run("wraps successful result in envelope", func(t *testing.T) {
		srv := newServer(echoTool("echo"))

		resp := srv.Execute(context.Background(), tool.NewRequest("echo", map[string]any{"text": "hello"}))
		if !resp.Success {
			t.Fatalf("expected success, got error: %s", resp.Error)
		}

		result, ok := resp.Result.(map[string]any)
		if !ok {
			t.Fatalf("expected map result, got %T", resp.Result)
		}
		if result["echo"] != "hello" {
			t.Errorf("expected echo 'hello', got %v", result["echo"])
		}
		if resp.Metadata["server_name"] != "echo-server" {
			t.Errorf("expected server_name metadata, got %v", resp.Metadata["server_name"])
		}
		if _, ok := resp.Metadata["execution_time"]; !ok {
			t.Error("expected execution_time metadata on success")
		}
	})

	t.Run("reports unknown tool", func(t *testing.T) {
		srv := newServer(echoTool("echo"))

		resp := srv.Execute(context.Background(), tool.NewRequest("nope", nil))
		if resp.Success {
			t.Fatal("expected failure for unknown tool")
		}
		want := `tool "nope" not found in server "echo-server"`
		if resp.Error != want {
			t.Errorf("expected error %q, got %q", want, resp.Error)
		}
	})

	t.Run("reports invalid parameters", func(t *testing.T) {
		srv := newServer(echoTool("echo"))

		resp := srv.Execute(context.Background(), tool.NewRequest("echo", map[string]any{}))
		if resp.Success {
			t.Fatal("expected failure for missing required parameter")
		}
		if !strings.HasPrefix(resp.Error, `invalid parameters for tool "echo"`) {
			t.Errorf("unexpected error: %q", resp.Error)
		}
	})

	t.Run("reports handler error", func(t *testing.T) {
		srv := newServer(failingTool("fail"))

		resp := srv.Execute(context.Background(), tool.NewRequest("fail", nil))
		if resp.Success {
			t.Fatal("expected failure for handler error")
		}
		if resp.Error != "tool execution failed: boom" {
			t.Errorf("unexpected error: %q", resp.Error)
		}
	})

	t.Run("recovers handler panic", func(t *testing.T) {
		srv := newServer(panickyTool("kaboom"))

		resp := srv.Execute(context.Background(), tool.NewRequest("kaboom", nil))
		if resp.Success {
			t.Fatal("expected failure for panicking handler")
		}
		if !strings.Contains(resp.Error, "handler exploded") {
			t.Errorf("expected panic message in error, got %q", resp.Error)
		}
	})

	t.Run("updates metrics only on success", func(t *testing.T) {
		echo := echoTool("echo")
		fail := failingTool("fail")
		srv := newServer(echo, fail)

		srv.Execute(context.Background(), tool.NewRequest("echo", map[string]any{"text": "hi"}))
		srv.Execute(context.Background(), tool.NewRequest("echo", map[string]any{}))
		srv.Execute(context.Background(), tool.NewRequest("fail", nil))

		if count, _ := echo.Metrics(); count != 1 {
			t.Errorf("expected 1 successful execution recorded, got %d", count)
		}
		if count, _ := fail.Metrics(); count != 0 {
			t.Errorf("expected no executions recorded for failing tool, got %d", count)
		}
	})

	t.Run("assigns request ID when missing", func(t *testing.T) {
		srv := newServer(echoTool("echo"))

		req := &tool.Request{ToolName: "echo", Parameters: map[string]any{"text": "hi"}}
		srv.Execute(context.Background(), req)
		if req.RequestID == "" {
			t.Error("expected request ID to be assigned")
		}
	})
}

func TestBaseServerLifecycle(t *testing.T) {
	t.Run("initialize is idempotent", func(t *testing.T) {
		srv := newStubServer("svc")
		if srv.Initialized() {
			t.Fatal("expected server to start uninitialized")
		}

		if err := srv.Initialize(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := srv.Initialize(context.Background()); err != nil {
			t.Fatalf("unexpected error on second initialize: %v", err)
		}
		if !srv.Initialized() {
			t.Error("expected server to be initialized")
		}
	})

	t.Run("info reflects status and tools", func(t *testing.T) {
		srv := newStubServer("svc")
		srv.AddTool(echoTool("b_tool"))
		srv.AddTool(echoTool("a_tool"))

		info, err := srv.Info(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Status != StatusInactive {
			t.Errorf("expected status %q before initialize, got %q", StatusInactive, info.Status)
		}
		if len(info.Tools) != 2 || info.Tools[0] != "a_tool" || info.Tools[1] != "b_tool" {
			t.Errorf("expected sorted tool names, got %v", info.Tools)
		}

		srv.Initialize(context.Background())
		info, _ = srv.Info(context.Background())
		if info.Status != StatusActive {
			t.Errorf("expected status %q after initialize, got %q", StatusActive, info.Status)
		}
	})

	t.Run("cleanup clears tools and status", func(t *testing.T) {
		srv := newStubServer("svc")
		srv.Initialize(context.Background())
		srv.AddTool(echoTool("echo"))

		if err := srv.Cleanup(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if srv.Initialized() {
			t.Error("expected server to be uninitialized after cleanup")
		}
		if _, ok := srv.Tool("echo"); ok {
			t.Error("expected tools to be cleared")
		}
	})
}

func TestBaseServerTools(t *testing.T) {
	srv := newStubServer("svc")
	for i := 3; i > 0; i-- {
		srv.AddTool(echoTool(fmt.Sprintf("tool_%d", i)))
	}

	tools := srv.Tools()
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
	for i, tl := range tools {
		want := fmt.Sprintf("tool_%d", i+1)
		if tl.Name != want {
			t.Errorf("expected tool %q at index %d, got %q", want, i, tl.Name)
		}
	}
}

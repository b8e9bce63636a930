// ABOUTME: Server interface for tool servers and the embeddable BaseServer implementation.
// ABOUTME: BaseServer owns the tool map and is the failure boundary for tool execution.

package mcp

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/2389/quorum-hub/internal/tool"
)

// Server status values reported by Info.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusError    = "error"
)

// ServerInfo describes a tool server and its current status.
type ServerInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Tools        []string `json:"tools"`
	Status       string   `json:"status"`
}

// Server is a named collection of tools managed by the Manager.
// Implementations embed *BaseServer and provide RegisterTools.
type Server interface {
	// Name returns the unique server name used as the routing key.
	Name() string

	// Info reports the server's descriptor and current status.
	Info(ctx context.Context) (*ServerInfo, error)

	// Initialize prepares the server for use. It must be idempotent.
	Initialize(ctx context.Context) error

	// Initialized reports whether Initialize has completed.
	Initialized() bool

	// RegisterTools builds the tools this server provides. The manager
	// calls it exactly once, during RegisterServer, and places the
	// accepted tools into the server with AddTool.
	RegisterTools(ctx context.Context) ([]*tool.Tool, error)

	// AddTool places a tool into the server's routing table.
	AddTool(t *tool.Tool)

	// Tool returns a registered tool by name.
	Tool(name string) (*tool.Tool, bool)

	// Tools returns a snapshot of the registered tools, sorted by name.
	Tools() []*tool.Tool

	// Execute runs a tool and reports the outcome in the response
	// envelope. It never returns a Go error and never panics through.
	Execute(ctx context.Context, req *tool.Request) *tool.Response

	// Cleanup releases server resources and clears registered tools.
	Cleanup(ctx context.Context) error
}

// BaseServer carries the state and behavior shared by all tool servers.
// Concrete servers embed it and implement RegisterTools.
type BaseServer struct {
	name         string
	version      string
	description  string
	capabilities []string
	logger       *slog.Logger

	mu          sync.RWMutex
	tools       map[string]*tool.Tool
	initialized bool
}

// NewBaseServer creates the embedded core of a tool server.
func NewBaseServer(name, version, description string, capabilities []string, logger *slog.Logger) *BaseServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaseServer{
		name:         name,
		version:      version,
		description:  description,
		capabilities: capabilities,
		logger:       logger.With("component", "mcp-server", "server", name),
		tools:        make(map[string]*tool.Tool),
	}
}

// Name returns the server's unique name.
func (s *BaseServer) Name() string { return s.name }

// Version returns the server's version string.
func (s *BaseServer) Version() string { return s.version }

// Description returns the human-readable server description.
func (s *BaseServer) Description() string { return s.description }

// Capabilities returns a copy of the server's capability tags.
func (s *BaseServer) Capabilities() []string {
	return append([]string(nil), s.capabilities...)
}

// Logger returns the server-scoped logger for use by tool handlers.
func (s *BaseServer) Logger() *slog.Logger { return s.logger }

// Initialize marks the server ready. Calling it again is a no-op.
func (s *BaseServer) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.logger.Info("server initialized", "version", s.version)
	return nil
}

// Initialized reports whether the server has been initialized.
func (s *BaseServer) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// AddTool places a tool into the server's routing table, replacing any
// tool with the same name.
func (s *BaseServer) AddTool(t *tool.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[t.Name] = t
}

// Tool returns a registered tool by name.
func (s *BaseServer) Tool(name string) (*tool.Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

// Tools returns a snapshot of the registered tools, sorted by name.
func (s *BaseServer) Tools() []*tool.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*tool.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Info reports the server's descriptor with its current tool names.
func (s *BaseServer) Info(ctx context.Context) (*ServerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := StatusInactive
	if s.initialized {
		status = StatusActive
	}

	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return &ServerInfo{
		Name:         s.name,
		Version:      s.version,
		Description:  s.description,
		Capabilities: append([]string(nil), s.capabilities...),
		Tools:        names,
		Status:       status,
	}, nil
}

// Execute runs the named tool and wraps the outcome in a response
// envelope. Unknown tools, invalid parameters, handler errors, and
// recovered panics are all reported as failure envelopes; Execute never
// returns a Go error. Tool metrics and the execution_time/server_name
// metadata are recorded only for successful executions.
func (s *BaseServer) Execute(ctx context.Context, req *tool.Request) (resp *tool.Response) {
	req.EnsureID()

	s.mu.RLock()
	t, ok := s.tools[req.ToolName]
	s.mu.RUnlock()

	if !ok {
		return tool.Fail("tool %q not found in server %q", req.ToolName, s.name)
	}

	if err := t.ValidateParams(req.Parameters); err != nil {
		return tool.Fail("invalid parameters for tool %q: %v", req.ToolName, err)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool handler panicked",
				"tool", req.ToolName,
				"request_id", req.RequestID,
				"panic", r,
			)
			resp = tool.Fail("tool execution failed: panic: %v", r)
		}
	}()

	start := time.Now()
	result, err := t.Handler(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Warn("tool execution failed",
			"tool", req.ToolName,
			"request_id", req.RequestID,
			"error", err,
		)
		return tool.Fail("tool execution failed: %v", err)
	}

	t.RecordExecution(elapsed)

	resp = tool.Succeed(result)
	resp.ExecutionTime = elapsed.Seconds()
	resp.SetMeta("execution_time", elapsed.Seconds())
	resp.SetMeta("server_name", s.name)
	return resp
}

// Cleanup clears the tool map and returns the server to the
// uninitialized state.
func (s *BaseServer) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("cleaning up server", "tools", len(s.tools))
	s.tools = make(map[string]*tool.Tool)
	s.initialized = false
	return nil
}

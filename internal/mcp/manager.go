// ABOUTME: Central manager that registers tool servers and routes tool calls by name.
// ABOUTME: Owns the tool name index, health reporting, and the execution audit hook.

package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/2389/quorum-hub/internal/tool"
)

// ErrServerExists indicates a server with the same name is already registered.
var ErrServerExists = errors.New("server already registered")

// ErrServerNotFound indicates the specified server was not found.
var ErrServerNotFound = errors.New("server not found")

// ErrToolNotFound indicates the requested tool is not registered with any server.
var ErrToolNotFound = errors.New("tool not found")

// ErrServerUnavailable indicates the server owning a tool is no longer registered.
var ErrServerUnavailable = errors.New("server unavailable")

// DefaultTimeout is the default per-call timeout for tool execution.
const DefaultTimeout = 30 * time.Second

// ExecError reports a tool execution that completed with a failure envelope.
type ExecError struct {
	ToolName string
	Message  string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("tool %q execution failed: %s", e.ToolName, e.Message)
}

// ExecutionRecord is one routed tool execution, successful or not.
type ExecutionRecord struct {
	RequestID  string
	ToolName   string
	ServerName string
	Success    bool
	Error      string
	Duration   time.Duration
	StartedAt  time.Time
}

// ExecutionRecorder receives a record of every tool execution routed through
// the manager. Implementations must be safe for concurrent use.
type ExecutionRecorder interface {
	RecordToolExecution(ctx context.Context, rec ExecutionRecord) error
}

// Health summarizes the manager and every registered server.
type Health struct {
	ManagerStatus string                  `json:"manager_status"`
	TotalServers  int                     `json:"total_servers"`
	TotalTools    int                     `json:"total_tools"`
	Servers       map[string]ServerHealth `json:"servers"`
}

// ServerHealth is the per-server section of a health report.
type ServerHealth struct {
	Status       string   `json:"status"`
	ToolsCount   int      `json:"tools_count"`
	Capabilities []string `json:"capabilities,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// ServerDetail describes a registered server for API consumers.
type ServerDetail struct {
	ServerID        string    `json:"server_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	Tools           []string  `json:"tools"`
	LastHealthCheck time.Time `json:"last_health_check"`
	Error           string    `json:"error,omitempty"`
}

// Manager is the central registry for tool servers. It maintains the
// index from tool name to owning server and routes executions, so each
// tool name resolves to exactly one server.
type Manager struct {
	logger   *slog.Logger
	timeout  time.Duration
	recorder ExecutionRecorder

	mu          sync.RWMutex
	servers     map[string]Server // by server name
	tools       map[string]string // tool name -> owning server name
	initialized bool
}

// ManagerConfig contains configuration options for the Manager.
type ManagerConfig struct {
	Logger *slog.Logger

	// Timeout bounds each tool execution. DefaultTimeout when zero;
	// negative disables the per-call timeout.
	Timeout time.Duration

	// Recorder, when set, receives an ExecutionRecord per routed call.
	Recorder ExecutionRecorder
}

// NewManager creates a new Manager with the given configuration.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Manager{
		logger:   logger.With("component", "mcp-manager"),
		timeout:  timeout,
		recorder: cfg.Recorder,
		servers:  make(map[string]Server),
		tools:    make(map[string]string),
	}
}

// Initialize marks the manager ready. Calling it again is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	m.initialized = true
	m.logger.Info("MCP manager initialized")
	return nil
}

// Initialized reports whether Initialize has completed.
func (m *Manager) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// RegisterServer initializes the server if needed, collects its tools
// exactly once, and claims an index entry for each tool. A tool name
// already claimed by another server is logged and skipped; the rest of
// the server's tools still register. Returns ErrServerExists if a server
// with the same name is already registered.
func (m *Manager) RegisterServer(ctx context.Context, srv Server) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := srv.Name()
	if _, exists := m.servers[name]; exists {
		m.logger.Warn("server already registered", "server", name)
		return fmt.Errorf("%w: %q", ErrServerExists, name)
	}

	if !srv.Initialized() {
		if err := srv.Initialize(ctx); err != nil {
			m.logger.Error("server initialization failed", "server", name, "error", err)
			return fmt.Errorf("initialize server %q: %w", name, err)
		}
	}

	tools, err := srv.RegisterTools(ctx)
	if err != nil {
		m.logger.Error("tool registration failed", "server", name, "error", err)
		return fmt.Errorf("register tools for server %q: %w", name, err)
	}

	accepted := 0
	for _, t := range tools {
		if owner, claimed := m.tools[t.Name]; claimed {
			m.logger.Warn("tool name already claimed, skipping",
				"tool", t.Name,
				"server", name,
				"owner", owner,
			)
			continue
		}
		m.tools[t.Name] = name
		srv.AddTool(t)
		accepted++
	}

	m.servers[name] = srv

	m.logger.Info("server registered",
		"server", name,
		"tools", accepted,
		"skipped", len(tools)-accepted,
		"total_servers", len(m.servers),
		"total_tools", len(m.tools),
	)
	return nil
}

// UnregisterServer removes a server and all its index entries. A cleanup
// failure is logged but does not block removal. Returns ErrServerNotFound
// for unknown names.
func (m *Manager) UnregisterServer(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unregisterLocked(ctx, name)
}

func (m *Manager) unregisterLocked(ctx context.Context, name string) error {
	srv, exists := m.servers[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}

	for toolName, owner := range m.tools {
		if owner == name {
			delete(m.tools, toolName)
		}
	}

	if err := srv.Cleanup(ctx); err != nil {
		m.logger.Warn("server cleanup failed", "server", name, "error", err)
	}

	delete(m.servers, name)

	m.logger.Info("server unregistered",
		"server", name,
		"total_servers", len(m.servers),
		"total_tools", len(m.tools),
	)
	return nil
}

// resolve maps a tool name to its owning server under a single read-lock
// acquisition, so the pair is consistent even while servers churn.
func (m *Manager) resolve(toolName string) (Server, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	serverName, ok := m.tools[toolName]
	if !ok {
		return nil, "", false
	}
	return m.servers[serverName], serverName, true
}

// ExecuteTool routes a tool call to its owning server and returns the
// response envelope. It never returns a Go error: unknown tools, stale
// index entries, and recovered panics all surface as failure envelopes.
// The configured timeout bounds the execution, and the recorder, when
// attached, receives a record of the outcome.
func (m *Manager) ExecuteTool(ctx context.Context, req *tool.Request) (resp *tool.Response) {
	req.EnsureID()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("tool execution panicked",
				"tool", req.ToolName,
				"request_id", req.RequestID,
				"panic", r,
			)
			resp = tool.Fail("tool execution failed: panic: %v", r)
		}
	}()

	srv, serverName, ok := m.resolve(req.ToolName)
	if !ok {
		return tool.Fail("tool %q not found", req.ToolName)
	}
	if srv == nil {
		return tool.Fail("server %q for tool %q not available", serverName, req.ToolName)
	}

	execCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	resp = srv.Execute(execCtx, req)
	m.record(ctx, req, serverName, resp, start, time.Since(start))
	return resp
}

func (m *Manager) record(ctx context.Context, req *tool.Request, serverName string, resp *tool.Response, start time.Time, elapsed time.Duration) {
	if m.recorder == nil {
		return
	}

	rec := ExecutionRecord{
		RequestID:  req.RequestID,
		ToolName:   req.ToolName,
		ServerName: serverName,
		Success:    resp.Success,
		Error:      resp.Error,
		Duration:   elapsed,
		StartedAt:  start,
	}
	if err := m.recorder.RecordToolExecution(ctx, rec); err != nil {
		m.logger.Warn("failed to record tool execution",
			"tool", req.ToolName,
			"request_id", req.RequestID,
			"error", err,
		)
	}
}

// CallTool executes a tool and returns its raw result, mapping failure
// envelopes to errors: ErrToolNotFound, ErrServerUnavailable, or an
// *ExecError carrying the envelope's error string.
func (m *Manager) CallTool(ctx context.Context, toolName string, params map[string]any) (any, error) {
	srv, serverName, ok := m.resolve(toolName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, toolName)
	}
	if srv == nil {
		return nil, fmt.Errorf("%w: server %q for tool %q", ErrServerUnavailable, serverName, toolName)
	}

	resp := m.ExecuteTool(ctx, tool.NewRequest(toolName, params))
	if !resp.Success {
		return nil, &ExecError{ToolName: toolName, Message: resp.Error}
	}
	return resp.Result, nil
}

// AvailableTools returns info for every routable tool, annotated with its
// owning server name, sorted by tool name.
func (m *Manager) AvailableTools(ctx context.Context) []tool.Info {
	m.mu.RLock()
	owners := make(map[string]Server, len(m.tools))
	for toolName, serverName := range m.tools {
		if srv, ok := m.servers[serverName]; ok {
			owners[toolName] = srv
		}
	}
	m.mu.RUnlock()

	infos := make([]tool.Info, 0, len(owners))
	for toolName, srv := range owners {
		t, ok := srv.Tool(toolName)
		if !ok {
			continue
		}
		info := t.Info()
		info.ServerName = srv.Name()
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ToolInfo returns info for a single tool, annotated with its owning
// server name.
func (m *Manager) ToolInfo(toolName string) (tool.Info, bool) {
	srv, serverName, ok := m.resolve(toolName)
	if !ok || srv == nil {
		return tool.Info{}, false
	}

	t, ok := srv.Tool(toolName)
	if !ok {
		return tool.Info{}, false
	}
	info := t.Info()
	info.ServerName = serverName
	return info, true
}

// ListTools returns the names of all routable tools, sorted.
func (m *Manager) ListTools() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.tools))
	for name := range m.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToolServer returns the name of the server that owns a tool.
func (m *Manager) ToolServer(toolName string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name, ok := m.tools[toolName]
	return name, ok
}

// Server returns a registered server by name.
func (m *Manager) Server(name string) (Server, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	srv, ok := m.servers[name]
	return srv, ok
}

// ServerTools returns info for every tool owned by the named server.
// Returns ErrServerNotFound for unknown names.
func (m *Manager) ServerTools(ctx context.Context, serverName string) ([]tool.Info, error) {
	m.mu.RLock()
	srv, ok := m.servers[serverName]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServerNotFound, serverName)
	}

	tools := srv.Tools()
	infos := make([]tool.Info, 0, len(tools))
	for _, t := range tools {
		info := t.Info()
		info.ServerName = serverName
		infos = append(infos, info)
	}
	return infos, nil
}

// Counts returns the number of registered servers and routable tools.
func (m *Manager) Counts() (servers, tools int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.servers), len(m.tools)
}

// HealthCheck reports the manager status and a per-server section. A
// server whose Info call fails is reported with status "error" and never
// affects the manager status.
func (m *Manager) HealthCheck(ctx context.Context) *Health {
	m.mu.RLock()
	status := "unhealthy"
	if m.initialized {
		status = "healthy"
	}
	servers := make(map[string]Server, len(m.servers))
	for name, srv := range m.servers {
		servers[name] = srv
	}
	totalTools := len(m.tools)
	m.mu.RUnlock()

	health := &Health{
		ManagerStatus: status,
		TotalServers:  len(servers),
		TotalTools:    totalTools,
		Servers:       make(map[string]ServerHealth, len(servers)),
	}

	for name, srv := range servers {
		info, err := srv.Info(ctx)
		if err != nil {
			health.Servers[name] = ServerHealth{Status: StatusError, Error: err.Error()}
			continue
		}
		health.Servers[name] = ServerHealth{
			Status:       info.Status,
			ToolsCount:   len(info.Tools),
			Capabilities: info.Capabilities,
		}
	}
	return health
}

// ServersInfo describes every registered server, sorted by server ID. A
// server whose Info call fails gets an error entry instead.
func (m *Manager) ServersInfo(ctx context.Context) []ServerDetail {
	m.mu.RLock()
	servers := make(map[string]Server, len(m.servers))
	for name, srv := range m.servers {
		servers[name] = srv
	}
	m.mu.RUnlock()

	now := time.Now().UTC()
	details := make([]ServerDetail, 0, len(servers))
	for name, srv := range servers {
		info, err := srv.Info(ctx)
		if err != nil {
			details = append(details, ServerDetail{
				ServerID:        name,
				Name:            name,
				Status:          StatusError,
				Tools:           []string{},
				LastHealthCheck: now,
				Error:           err.Error(),
			})
			continue
		}
		details = append(details, ServerDetail{
			ServerID:        name,
			Name:            info.Name,
			Description:     info.Description,
			Status:          info.Status,
			Tools:           info.Tools,
			LastHealthCheck: now,
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].ServerID < details[j].ServerID })
	return details
}

// Cleanup unregisters every server, continuing past individual failures,
// then clears the index and returns the manager to the uninitialized
// state.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("cleaning up MCP manager", "servers", len(m.servers))

	names := make([]string, 0, len(m.servers))
	for name := range m.servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := m.unregisterLocked(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}

	m.tools = make(map[string]string)
	m.initialized = false

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with errors: %v", errs)
	}
	return nil
}

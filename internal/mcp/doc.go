// Package mcp provides the server manager that routes tool calls to
// registered tool servers.
//
// # Overview
//
// A tool server bundles related tools behind a single name (web search,
// research, notes). The Manager keeps a registry of servers and a derived
// index from tool name to owning server, so every tool name resolves to
// exactly one server process-wide.
//
// # Registration
//
// RegisterServer initializes the server if needed, asks it for its tools
// exactly once, and claims an index entry per tool. A tool name that is
// already claimed by another server is logged and skipped; the rest of the
// server's tools still register. A duplicate server name rejects the whole
// registration and leaves the existing server untouched.
//
// # Execution
//
// ExecuteTool resolves the tool name and the live server under a single
// read-lock acquisition, then executes without holding any lock. It never
// returns a Go error: unknown tools, unavailable servers, validation
// failures, handler errors, and recovered panics all surface as failure
// envelopes in the tool.Response. CallTool is the error-returning variant
// for callers that want sentinel errors instead of envelopes.
//
// # Usage
//
// Create a manager and register servers:
//
//	manager := mcp.NewManager(mcp.ManagerConfig{Logger: logger})
//	manager.Initialize(ctx)
//	manager.RegisterServer(ctx, servers.NewWebSearchServer(logger))
//
// Execute a tool:
//
//	resp := manager.ExecuteTool(ctx, tool.NewRequest("web_search", params))
package mcp

// Package mcpapi exposes the hub's tools to external MCP clients.
//
// # Overview
//
// MCP (Model Context Protocol) is a standard for AI tool integration. This
// package serves an MCP-compatible endpoint so external clients such as
// Claude Code or Claude Desktop can discover and call the same tools the
// hub's own agents use.
//
// # Protocol
//
// The endpoint implements the Streamable HTTP transport: JSON-RPC 2.0
// messages over HTTP POST to a single /mcp path, with sessions tracked via
// the Mcp-Session-Id header.
//
// Supported methods:
//
//   - initialize - handshake, creates a session
//   - tools/list - tool discovery with JSON Schema definitions
//   - tools/call - tool execution
//   - ping       - liveness check
//
// DELETE /mcp terminates a session; notifications (messages without an id)
// are accepted with HTTP 202.
//
// # Authentication
//
// When the hub's authenticator is enabled, initialize requires a
// credential: a Bearer header, a token query parameter, or a token in the
// path (/mcp/<token>) for clients that cannot set headers. Both JWTs and
// qh_ API tokens are accepted. The session created on initialize carries
// the authenticated identity, so subsequent requests only need the
// session header.
//
// # Tool Errors
//
// Protocol problems (unknown method, bad params, unknown tool) come back
// as JSON-RPC errors. Failures inside a tool come back as results with
// isError content, mirroring the execution envelope:
//
//	{
//	  "content": [{"type": "text", "text": "tool execution failed: ..."}],
//	  "isError": true
//	}
//
// # Usage
//
// Create the server and mount it on the hub's mux:
//
//	server, err := mcpapi.NewServer(mcpapi.Config{
//	    Tools:  toolManager,
//	    Auth:   authenticator,
//	    Logger: logger,
//	})
//	server.RegisterRoutes(mux)
//
// # Integration with Claude Code
//
//	claude mcp add --transport http quorum http://localhost:8420/mcp \
//	    --header "Authorization: Bearer qh_..."
package mcpapi

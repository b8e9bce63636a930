// Package hub wires every subsystem together and runs the HTTP server.
//
// # Overview
//
// The hub is the composition root: it builds the store, model providers,
// tool manager, agent registry, session manager, and authenticator from a
// single config, mounts the JSON API plus the MCP endpoint (and optionally
// the debug console) on one mux, and owns the process lifecycle.
//
// # Lifecycle
//
// New constructs everything but opens no listeners. Run initializes the
// tool manager and agent registry, binds the listener (TCP, or a Tailscale
// node when tailscale.enabled is set), serves until the context is
// canceled or the server fails, then shuts down gracefully with a five
// second deadline. Shutdown cleans up in dependency order: agents first,
// then the tool manager, then sessions, and last the store they all write
// through. Errors on the way down are collected rather than short-circuiting.
//
// /health answers as soon as the listener is up; /health/ready stays 503
// until initialization completes and at least one agent is registered.
//
// # HTTP API
//
// All /api routes speak JSON and pass through the auth middleware (a
// pass-through when no jwt_secret is configured):
//
//   - GET  /api/servers                    - tool servers with status
//   - GET  /api/servers/{name}/tools       - tools owned by one server
//   - GET  /api/tools                      - all routable tools (?server= filter)
//   - POST /api/tools/execute              - run a tool, envelope always HTTP 200
//   - GET  /api/mcp/health                 - per-server health report
//   - GET  /api/agents                     - agent snapshots (?type=, ?status=)
//   - GET  /api/agents/discover            - capability search (?query=, ?limit=)
//   - GET  /api/agents/{id}                - snapshot plus live stats
//   - POST /api/agents/{id}/reload         - rebuild one agent
//   - POST /api/chat                       - one exchange with an agent
//   - POST /api/chat/stream                - same, streamed as SSE
//   - POST /api/multimodal                 - chat with base64 file attachments
//   - GET  /api/sessions/{id}/history      - recorded conversation
//   - GET  /api/stats                      - per-agent and per-tool aggregates
//   - POST /api/tokens                     - mint an API token (auth required)
//   - GET /api/tokens                      - list token metadata (auth required)
//   - DELETE /api/tokens/{id}              - revoke a token (auth required)
//
// Tool execution failures ride the response envelope with success=false;
// the HTTP status stays 200. Agent failures are different: they surface as
// 502 with the error in the body, and nothing is recorded to the session.
//
// # Sessions
//
// Chat handlers mint a session id when the request omits one and record
// the user/assistant pair only after the agent succeeds. History reads
// hydrate persisted sessions from the store on demand; a lookup that finds
// nothing leaves no session behind.
package hub

// ABOUTME: JSON API handlers for tools, agents, chat, sessions, and stats.
// ABOUTME: Streams chat responses via SSE and exposes the tool envelope directly.

package hub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/2389/quorum-hub/internal/agent"
	"github.com/2389/quorum-hub/internal/auth"
	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/memory"
	"github.com/2389/quorum-hub/internal/store"
	"github.com/2389/quorum-hub/internal/tool"
)

// ChatRequest is the JSON request body for POST /api/chat and
// POST /api/chat/stream.
type ChatRequest struct {
	AgentID   string `json:"agent_id"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the JSON response for chat endpoints.
type ChatResponse struct {
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	SessionID string         `json:"session_id"`
}

// MultimodalFile is one attachment in a multimodal request. Data is
// base64 encoded.
type MultimodalFile struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// MultimodalRequest is the JSON request body for POST /api/multimodal.
type MultimodalRequest struct {
	AgentID   string           `json:"agent_id"`
	Message   string           `json:"message"`
	SessionID string           `json:"session_id,omitempty"`
	Files     []MultimodalFile `json:"files"`
}

// SessionMessage is one entry in a session history response.
type SessionMessage struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// SessionHistoryResponse is the JSON response for GET /api/sessions/{id}/history.
type SessionHistoryResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []SessionMessage `json:"messages"`
}

// ToolUsageStats is one tool's aggregate execution record.
type ToolUsageStats struct {
	ToolName      string  `json:"tool_name"`
	Executions    int64   `json:"executions"`
	Failures      int64   `json:"failures"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}

// StatsResponse is the JSON response for GET /api/stats.
type StatsResponse struct {
	Agents         map[string]*agent.Stats `json:"agents"`
	Tools          []ToolUsageStats        `json:"tools"`
	ActiveSessions int                     `json:"active_sessions"`
}

// MintTokenRequest is the JSON request body for POST /api/tokens.
type MintTokenRequest struct {
	Name string `json:"name"`
}

// MintTokenResponse carries a freshly minted API token. The raw token
// is shown exactly once; only its hash is stored.
type MintTokenResponse struct {
	Token  string `json:"token"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// APITokenInfo is token metadata as returned by GET /api/tokens. The
// secret itself is never listed.
type APITokenInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Prefix     string `json:"prefix"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}

// registerAPIRoutes attaches the JSON API, wrapping every route with
// the auth middleware. With auth disabled the middleware passes through.
func (h *Hub) registerAPIRoutes(mux *http.ServeMux) {
	api := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, h.authn.Middleware(fn))
	}

	api("GET /api/servers", h.handleListServers)
	api("GET /api/servers/{name}/tools", h.handleServerTools)
	api("GET /api/tools", h.handleListTools)
	api("POST /api/tools/execute", h.handleExecuteTool)
	api("GET /api/mcp/health", h.handleMCPHealth)
	api("GET /api/agents", h.handleListAgents)
	api("GET /api/agents/discover", h.handleDiscoverAgents)
	api("GET /api/agents/{id}", h.handleAgentDetail)
	api("POST /api/agents/{id}/reload", h.handleAgentReload)
	api("POST /api/chat", h.handleChat)
	api("POST /api/chat/stream", h.handleChatStream)
	api("POST /api/multimodal", h.handleMultimodal)
	api("GET /api/sessions/{id}/history", h.handleSessionHistory)
	api("GET /api/stats", h.handleStats)
	api("POST /api/tokens", h.handleMintToken)
	api("GET /api/tokens", h.handleListTokens)
	api("DELETE /api/tokens/{id}", h.handleRevokeToken)

	if h.authn.Enabled() {
		h.logger.Info("HTTP auth middleware enabled")
	} else {
		h.logger.Warn("HTTP auth disabled - no jwt_secret configured")
	}
}

// handleListServers handles GET /api/servers.
func (h *Hub) handleListServers(w http.ResponseWriter, r *http.Request) {
	details := h.tools.ServersInfo(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]any{
		"servers": details,
		"count":   len(details),
	})
}

// handleServerTools handles GET /api/servers/{name}/tools.
func (h *Hub) handleServerTools(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	infos, err := h.tools.ServerTools(r.Context(), name)
	if errors.Is(err, mcp.ErrServerNotFound) {
		h.sendJSONError(w, http.StatusNotFound, "server not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to list server tools", "server", name, "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"server": name,
		"tools":  infos,
		"count":  len(infos),
	})
}

// handleListTools handles GET /api/tools. Supports optional ?server=
// filtering by owning server.
func (h *Hub) handleListTools(w http.ResponseWriter, r *http.Request) {
	infos := h.tools.AvailableTools(r.Context())

	if serverFilter := r.URL.Query().Get("server"); serverFilter != "" {
		var filtered []tool.Info
		for _, info := range infos {
			if info.ServerName == serverFilter {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"tools": infos,
		"count": len(infos),
	})
}

// handleExecuteTool handles POST /api/tools/execute. The response is
// always the execution envelope with HTTP 200; routing and execution
// failures ride the envelope, not the status code.
func (h *Hub) handleExecuteTool(w http.ResponseWriter, r *http.Request) {
	var req tool.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ToolName == "" {
		h.sendJSONError(w, http.StatusBadRequest, "tool_name is required")
		return
	}
	req.EnsureID()

	resp := h.tools.ExecuteTool(r.Context(), &req)
	h.writeJSON(w, http.StatusOK, resp)
}

// handleMCPHealth handles GET /api/mcp/health.
func (h *Hub) handleMCPHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.tools.HealthCheck(r.Context()))
}

// handleListAgents handles GET /api/agents with optional ?type= and
// ?status= filters.
func (h *Hub) handleListAgents(w http.ResponseWriter, r *http.Request) {
	snaps := h.registry.List(r.URL.Query().Get("type"), r.URL.Query().Get("status"))
	h.writeJSON(w, http.StatusOK, map[string]any{
		"agents": snaps,
		"count":  len(snaps),
	})
}

// handleDiscoverAgents handles GET /api/agents/discover?query=&limit=.
func (h *Hub) handleDiscoverAgents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		h.sendJSONError(w, http.StatusBadRequest, "query is required")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	matches := h.registry.Discover(query, limit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":  query,
		"agents": matches,
		"count":  len(matches),
	})
}

// handleAgentDetail handles GET /api/agents/{id}: the registry snapshot
// plus live stats.
func (h *Hub) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	snap, err := h.registry.Describe(id)
	if errors.Is(err, agent.ErrAgentNotFound) {
		h.sendJSONError(w, http.StatusNotFound, "agent not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to describe agent", "agent_id", id, "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var stats *agent.Stats
	if ag, err := h.registry.Get(id); err == nil {
		stats = ag.Stats()
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"agent": snap,
		"stats": stats,
	})
}

// handleAgentReload handles POST /api/agents/{id}/reload.
func (h *Hub) handleAgentReload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.registry.Reload(r.Context(), id); err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			h.sendJSONError(w, http.StatusNotFound, "agent not found")
			return
		}
		h.logger.Error("agent reload failed", "agent_id", id, "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "reloaded",
		"agent_id": id,
	})
}

// handleChat handles POST /api/chat. A missing session_id mints a fresh
// session. Agent failures surface as 502 with the error in the body.
func (h *Hub) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := parseChatRequest(r.Body)
	if err != nil {
		h.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ag, err := h.resolveAgent(w, req.AgentID)
	if err != nil {
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	ctx, cancel := h.processContext(r.Context())
	defer cancel()

	resp, err := ag.Process(ctx, req.Message, sessionID, nil)
	if err != nil {
		h.logger.Error("agent processing failed", "agent_id", req.AgentID, "error", err)
		h.sendJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.recordExchange(r.Context(), sessionID, req.AgentID, req.Message, resp)

	h.writeJSON(w, http.StatusOK, ChatResponse{
		Content:   resp.Content,
		Metadata:  resp.Metadata,
		SessionID: sessionID,
	})
}

// handleChatStream handles POST /api/chat/stream. Responses stream as
// SSE: a started event with the session id, chunk events with deltas,
// and a final done event carrying the full response.
func (h *Hub) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := parseChatRequest(r.Body)
	if err != nil {
		h.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ag, err := h.resolveAgent(w, req.AgentID)
	if err != nil {
		return
	}

	streamer, ok := ag.(agent.Streamer)
	if !ok {
		h.sendJSONError(w, http.StatusBadRequest, "agent does not support streaming")
		return
	}

	// Check streaming support before sending (fail fast)
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		h.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	ctx, cancel := h.processContext(r.Context())
	defer cancel()

	stream, err := streamer.ProcessStream(ctx, req.Message, sessionID, nil)
	if err != nil {
		if errors.Is(err, agent.ErrStreamingUnsupported) {
			h.sendJSONError(w, http.StatusBadRequest, "agent does not support streaming")
			return
		}
		h.logger.Error("agent streaming failed", "agent_id", req.AgentID, "error", err)
		h.sendJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	h.writeSSEEvent(w, "started", map[string]string{"session_id": sessionID})
	flusher.Flush()

	h.streamChunks(ctx, w, flusher, stream, sessionID, req)
}

// streamChunks forwards agent chunks as SSE events until the terminal
// chunk or context cancellation.
func (h *Hub) streamChunks(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, stream <-chan agent.Chunk, sessionID string, req *ChatRequest) {
	for {
		select {
		case <-ctx.Done():
			h.writeSSEEvent(w, "error", map[string]string{"error": "request cancelled"})
			flusher.Flush()
			return

		case chunk, ok := <-stream:
			if !ok {
				return
			}

			switch {
			case chunk.Err != nil:
				h.writeSSEEvent(w, "error", map[string]string{"error": chunk.Err.Error()})
				flusher.Flush()
				return

			case chunk.Final != nil:
				h.recordExchange(ctx, sessionID, req.AgentID, req.Message, chunk.Final)
				h.writeSSEEvent(w, "done", ChatResponse{
					Content:   chunk.Final.Content,
					Metadata:  chunk.Final.Metadata,
					SessionID: sessionID,
				})
				flusher.Flush()
				return

			default:
				h.writeSSEEvent(w, "chunk", map[string]string{"delta": chunk.Delta})
				flusher.Flush()
			}
		}
	}
}

// handleMultimodal handles POST /api/multimodal with base64 file data.
func (h *Hub) handleMultimodal(w http.ResponseWriter, r *http.Request) {
	var req MultimodalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AgentID == "" {
		h.sendJSONError(w, http.StatusBadRequest, "agent_id is required")
		return
	}
	if req.Message == "" && len(req.Files) == 0 {
		h.sendJSONError(w, http.StatusBadRequest, "message or files required")
		return
	}

	ag, err := h.resolveAgent(w, req.AgentID)
	if err != nil {
		return
	}

	mm, ok := ag.(agent.MultimodalProcessor)
	if !ok {
		h.sendJSONError(w, http.StatusBadRequest, "agent does not support multimodal input")
		return
	}

	attachments := make([]agent.Attachment, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			h.sendJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid base64 data for file %q", f.Name))
			return
		}
		attachments = append(attachments, agent.Attachment{
			Name:      f.Name,
			MediaType: f.MediaType,
			Data:      data,
		})
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	ctx, cancel := h.processContext(r.Context())
	defer cancel()

	resp, err := mm.ProcessMultimodal(ctx, req.Message, attachments, sessionID)
	if err != nil {
		if errors.Is(err, agent.ErrMultimodalUnsupported) {
			h.sendJSONError(w, http.StatusBadRequest, "agent does not support multimodal input")
			return
		}
		h.logger.Error("multimodal processing failed", "agent_id", req.AgentID, "error", err)
		h.sendJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.recordExchange(r.Context(), sessionID, req.AgentID, req.Message, resp)

	h.writeJSON(w, http.StatusOK, ChatResponse{
		Content:   resp.Content,
		Metadata:  resp.Metadata,
		SessionID: sessionID,
	})
}

// handleSessionHistory handles GET /api/sessions/{id}/history. Sessions
// persisted by an earlier run are hydrated from the store.
func (h *Hub) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	conv, live := h.sessions.Get(id)
	if !live {
		conv = h.sessions.GetOrCreate(r.Context(), id)
		if conv.Len() == 0 {
			// Nothing live and nothing persisted under this id.
			h.sessions.Remove(id)
			h.sendJSONError(w, http.StatusNotFound, "session not found")
			return
		}
	}

	msgs := conv.Messages()
	response := SessionHistoryResponse{
		SessionID: id,
		Messages:  make([]SessionMessage, len(msgs)),
	}
	for i, msg := range msgs {
		response.Messages[i] = SessionMessage{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			Metadata:  msg.Metadata,
			Timestamp: msg.Timestamp.Format(time.RFC3339),
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// handleStats handles GET /api/stats: per-agent activity plus tool
// usage aggregates from the store.
func (h *Hub) handleStats(w http.ResponseWriter, r *http.Request) {
	agentStats := make(map[string]*agent.Stats)
	for _, snap := range h.registry.List("", "") {
		if ag, err := h.registry.Get(snap.ID); err == nil {
			agentStats[snap.ID] = ag.Stats()
		}
	}

	usage, err := h.store.UsageStats(r.Context(), 50)
	if err != nil {
		h.logger.Error("failed to load usage stats", "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	toolStats := make([]ToolUsageStats, len(usage))
	for i, u := range usage {
		toolStats[i] = ToolUsageStats{
			ToolName:      u.ToolName,
			Executions:    u.Executions,
			Failures:      u.Failures,
			AvgDurationMS: u.AvgDurationMS,
		}
	}

	h.writeJSON(w, http.StatusOK, StatsResponse{
		Agents:         agentStats,
		Tools:          toolStats,
		ActiveSessions: h.sessions.Len(),
	})
}

// handleMintToken handles POST /api/tokens. Minting requires an
// authenticated caller, so it is refused outright when auth is off; the
// first token comes from the bootstrap command instead.
func (h *Hub) handleMintToken(w http.ResponseWriter, r *http.Request) {
	if !h.authn.Enabled() {
		h.sendJSONError(w, http.StatusForbidden, "authentication is disabled")
		return
	}

	var req MintTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		h.sendJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	raw, tok, err := auth.MintAPIToken(r.Context(), h.store, req.Name)
	if err != nil {
		h.logger.Error("failed to mint API token", "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, MintTokenResponse{
		Token:  raw,
		ID:     tok.ID,
		Name:   tok.Name,
		Prefix: tok.Prefix,
	})
}

// handleListTokens handles GET /api/tokens.
func (h *Hub) handleListTokens(w http.ResponseWriter, r *http.Request) {
	if !h.authn.Enabled() {
		h.sendJSONError(w, http.StatusForbidden, "authentication is disabled")
		return
	}

	toks, err := h.store.ListAPITokens(r.Context())
	if err != nil {
		h.logger.Error("failed to list API tokens", "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]APITokenInfo, len(toks))
	for i, t := range toks {
		info := APITokenInfo{
			ID:        t.ID,
			Name:      t.Name,
			Prefix:    t.Prefix,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		}
		if t.LastUsedAt != nil {
			info.LastUsedAt = t.LastUsedAt.Format(time.RFC3339)
		}
		out[i] = info
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"tokens": out,
		"count":  len(out),
	})
}

// handleRevokeToken handles DELETE /api/tokens/{id}. A revoked token
// stops authenticating on the next request.
func (h *Hub) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	if !h.authn.Enabled() {
		h.sendJSONError(w, http.StatusForbidden, "authentication is disabled")
		return
	}

	id := r.PathValue("id")
	if err := h.store.DeleteAPIToken(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.sendJSONError(w, http.StatusNotFound, "token not found")
			return
		}
		h.logger.Error("failed to revoke API token", "token_id", id, "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "revoked", "id": id})
}

// resolveAgent looks up an agent, writing the error response on failure.
// The returned error only signals that a response was already written.
func (h *Hub) resolveAgent(w http.ResponseWriter, agentID string) (agent.Agent, error) {
	ag, err := h.registry.Get(agentID)
	if errors.Is(err, agent.ErrAgentNotFound) {
		h.sendJSONError(w, http.StatusNotFound, "agent not found")
		return nil, err
	}
	if err != nil {
		h.logger.Error("failed to resolve agent", "agent_id", agentID, "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return nil, err
	}
	return ag, nil
}

// recordExchange appends one user/assistant exchange to the hub's
// session log and persists it. Only successful exchanges are recorded.
func (h *Hub) recordExchange(ctx context.Context, sessionID, agentID, message string, resp *agent.Response) {
	conv := h.sessions.GetOrCreate(ctx, sessionID)
	conv.Add(memory.RoleUser, message, nil)
	conv.Add(memory.RoleAssistant, resp.Content, map[string]any{"agent_id": agentID})

	if err := h.sessions.Persist(ctx, sessionID); err != nil {
		h.logger.Warn("failed to persist session", "session_id", sessionID, "error", err)
	}
}

// processContext bounds agent work by the configured timeout.
func (h *Hub) processContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := h.config.Agents.ProcessTimeout
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// parseChatRequest parses and validates a ChatRequest from the given
// reader. Returns an error if the JSON is invalid or required fields
// are missing.
func parseChatRequest(r io.Reader) (*ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}

	if req.AgentID == "" {
		return nil, errors.New("agent_id is required")
	}
	if req.Message == "" {
		return nil, errors.New("message is required")
	}

	return &req, nil
}

// writeJSON writes a JSON response with the given status.
func (h *Hub) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeSSEEvent writes a single SSE event to the response writer.
func (h *Hub) writeSSEEvent(w http.ResponseWriter, event string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

// sendJSONError writes a JSON error response.
func (h *Hub) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ABOUTME: Read-only operator console showing hub state as plain HTML.
// ABOUTME: Serves a dashboard and session transcripts; it never mutates anything.

package console

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/2389/quorum-hub/internal/agent"
	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/memory"
)

// timeLayout is the timestamp format used on console pages.
const timeLayout = "2006-01-02 15:04:05"

// Config carries the hub components the console reads from. Any of the
// component fields may be nil; the matching section renders empty.
type Config struct {
	Logger   *slog.Logger
	Tools    *mcp.Manager
	Registry *agent.Registry
	Memory   *memory.Manager
}

// Console serves the operator pages. All routes are GET and no handler
// writes to the components it reads.
type Console struct {
	logger   *slog.Logger
	tools    *mcp.Manager
	registry *agent.Registry
	memory   *memory.Manager
}

// NewConsole creates a console over the given hub components.
func NewConsole(cfg Config) *Console {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{
		logger:   logger.With("component", "console"),
		tools:    cfg.Tools,
		registry: cfg.Registry,
		memory:   cfg.Memory,
	}
}

// RegisterRoutes attaches the console pages to mux.
func (c *Console) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /console", c.handleDashboard)
	mux.HandleFunc("GET /console/", c.handleDashboard)
	mux.HandleFunc("GET /console/sessions/{id}", c.handleSession)
}

// handleDashboard renders the overview: servers, tools, agents, and the
// sessions currently held in memory.
func (c *Console) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{Title: "Dashboard"}

	if c.tools != nil {
		data.ServerCount, data.ToolCount = c.tools.Counts()
		for _, srv := range c.tools.ServersInfo(r.Context()) {
			data.Servers = append(data.Servers, serverRow{
				Name:        srv.Name,
				Description: srv.Description,
				Status:      srv.Status,
				ToolCount:   len(srv.Tools),
				Error:       srv.Error,
			})
		}
		for _, info := range c.tools.AvailableTools(r.Context()) {
			data.Tools = append(data.Tools, toolRow{
				Name:        info.Name,
				Server:      info.ServerName,
				Description: info.Description,
				Executions:  info.ExecutionCount,
				AvgTime:     formatSeconds(info.AverageExecutionTime),
			})
		}
	}

	if c.registry != nil {
		for _, snap := range c.registry.List("", "") {
			row := agentRow{
				ID:     snap.ID,
				Name:   snap.Name,
				Type:   snap.Type,
				Status: snap.Status,
				Model:  snap.ModelProvider + "/" + snap.ModelName,
			}
			if ag, err := c.registry.Get(snap.ID); err == nil {
				stats := ag.Stats()
				row.Interactions = stats.InteractionCount
				row.Sessions = stats.ActiveSessions
			}
			data.Agents = append(data.Agents, row)
		}
	}

	if c.memory != nil {
		for _, id := range c.memory.Sessions() {
			conv, ok := c.memory.Get(id)
			if !ok {
				continue
			}
			data.Sessions = append(data.Sessions, sessionRow{
				ID:       id,
				Messages: conv.Len(),
				LastSeen: conv.LastAccess().Format(timeLayout),
			})
		}
	}

	c.renderDashboard(w, data)
}

// handleSession renders the transcript for one session. Only sessions
// currently held in memory are shown; browsing never creates one.
func (c *Console) handleSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if c.memory == nil {
		http.NotFound(w, r)
		return
	}
	conv, ok := c.memory.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	msgs := conv.Messages()
	data := sessionData{
		Title:        "Session " + id,
		SessionID:    id,
		MessageCount: len(msgs),
	}
	for _, msg := range msgs {
		view := messageView{
			Role: msg.Role,
			Time: msg.Timestamp.Format(timeLayout),
			Body: c.renderMarkdown(msg),
		}
		if agentID, ok := msg.Metadata["agent_id"].(string); ok {
			view.Agent = agentID
		}
		data.Messages = append(data.Messages, view)
	}

	c.renderSession(w, data)
}

// renderMarkdown converts message content to HTML. Goldmark escapes raw
// HTML in the source, so the output is safe to embed in the page.
func (c *Console) renderMarkdown(msg memory.Message) template.HTML {
	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(msg.Content), &htmlBuf); err != nil {
		c.logger.Error("failed to convert markdown", "error", err, "message_id", msg.ID)
		htmlBuf.WriteString("<p>Failed to render message.</p>")
	}
	return template.HTML(htmlBuf.String())
}

// formatSeconds renders an average execution time for display.
func formatSeconds(secs float64) string {
	if secs <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.3fs", secs)
}

// ABOUTME: Template rendering functions for the debug console.
// ABOUTME: Loads templates from the embedded filesystem and renders them.

package console

import (
	"html/template"
	"net/http"
)

// Template data types
type dashboardData struct {
	Title       string
	ServerCount int
	ToolCount   int
	Servers     []serverRow
	Tools       []toolRow
	Agents      []agentRow
	Sessions    []sessionRow
}

type serverRow struct {
	Name        string
	Description string
	Status      string
	ToolCount   int
	Error       string
}

type toolRow struct {
	Name        string
	Server      string
	Description string
	Executions  int64
	AvgTime     string
}

type agentRow struct {
	ID           string
	Name         string
	Type         string
	Status       string
	Model        string
	Interactions int64
	Sessions     int
}

type sessionRow struct {
	ID       string
	Messages int
	LastSeen string
}

type sessionData struct {
	Title        string
	SessionID    string
	MessageCount int
	Messages     []messageView
}

type messageView struct {
	Role  string
	Agent string
	Time  string
	Body  template.HTML
}

// renderDashboard renders the overview page.
func (c *Console) renderDashboard(w http.ResponseWriter, data dashboardData) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/dashboard.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		c.logger.Error("failed to render dashboard", "error", err)
	}
}

// renderSession renders a session transcript page.
func (c *Console) renderSession(w http.ResponseWriter, data sessionData) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/session.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		c.logger.Error("failed to render session transcript", "error", err)
	}
}

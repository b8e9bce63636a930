// Package console provides a read-only debug console for the hub.
//
// # Overview
//
// The console is a plain HTML view of live hub state for operators:
//
//   - Dashboard: tool servers, tools with execution metrics, agents, sessions
//   - Transcripts: per-session message history with rendered markdown
//
// It is read-only: every route is GET, browsing never creates sessions
// or mutates any component, and there is no login. Whether the console
// is mounted at all is a deployment decision (console.enabled).
//
// # Routes
//
//   - GET /console: the dashboard
//   - GET /console/sessions/{id}: one session transcript
//
// Only sessions currently held in memory appear; history that exists
// solely in the store is served by the JSON API, not the console.
//
// # Templates
//
// Pages are Go html/template files embedded with //go:embed:
//
//   - Base layout: templates/base.html
//   - Dashboard: templates/dashboard.html
//   - Transcript: templates/session.html
//
// Message content is converted from markdown with goldmark. Raw HTML in
// the source is escaped during conversion, so transcripts are safe to
// embed in the page.
//
// # Usage
//
// Create the console and mount it on the hub's mux:
//
//	con := console.NewConsole(console.Config{
//		Logger:   logger,
//		Tools:    toolManager,
//		Registry: registry,
//		Memory:   sessions,
//	})
//	con.RegisterRoutes(mux)
package console

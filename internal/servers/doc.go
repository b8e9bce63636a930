// Package servers bundles the tool servers that ship with the hub.
//
// WebSearchServer and ResearchServer return deterministic synthesized
// results: they demonstrate and exercise the routing machinery without any
// network traffic leaving the process. NotesServer persists real notes
// through the SQLite store. Each server embeds mcp.BaseServer and contributes
// its tools via RegisterTools.
package servers

// ABOUTME: Tool server persisting notes through the SQLite store.
// ABOUTME: The only bundled server with real side effects; requires a store.

package servers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/store"
	"github.com/2389/quorum-hub/internal/tool"
)

// noteTitleLimit caps titles derived from note content.
const noteTitleLimit = 60

// NotesServer exposes save_note, search_notes, and list_notes over the store.
type NotesServer struct {
	*mcp.BaseServer
	store store.Store
}

var _ mcp.Server = (*NotesServer)(nil)

// NewNotesServer creates the bundled notes server.
func NewNotesServer(st store.Store, logger *slog.Logger) *NotesServer {
	return &NotesServer{
		BaseServer: mcp.NewBaseServer(
			"notes_server",
			"1.0.0",
			"Saves and searches persistent notes",
			[]string{"notes", "storage", "search"},
			logger,
		),
		store: st,
	}
}

// Initialize verifies the store is present before marking the server ready.
func (s *NotesServer) Initialize(ctx context.Context) error {
	if s.store == nil {
		return errors.New("notes server requires a store")
	}
	return s.BaseServer.Initialize(ctx)
}

// RegisterTools returns the server's tools for manager registration.
func (s *NotesServer) RegisterTools(ctx context.Context) ([]*tool.Tool, error) {
	return []*tool.Tool{
		tool.New(tool.Definition{
			Name:        "save_note",
			Description: "Save a note with optional title and tags",
			Schema: tool.MustSchema(`{
				"type": "object",
				"properties": {
					"content": {"type": "string", "description": "The note content"},
					"title": {"type": "string", "description": "Note title; derived from content when omitted"},
					"tags": {"type": "array", "items": {"type": "string"}, "description": "Tags for later filtering"}
				},
				"required": ["content"]
			}`),
			Capabilities: []string{"notes", "storage"},
		}, s.saveNote),
		tool.New(tool.Definition{
			Name:        "search_notes",
			Description: "Search saved notes by text and optional tag",
			Schema: tool.MustSchema(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Text to match in titles and content"},
					"tag": {"type": "string", "description": "Restrict matches to notes carrying this tag"},
					"limit": {"type": "integer", "description": "Maximum number of notes to return", "default": 10}
				},
				"required": ["query"]
			}`),
			Capabilities: []string{"notes", "search"},
		}, s.searchNotes),
		tool.New(tool.Definition{
			Name:        "list_notes",
			Description: "List saved notes, most recently updated first",
			Schema: tool.MustSchema(`{
				"type": "object",
				"properties": {
					"limit": {"type": "integer", "description": "Maximum number of notes to return", "default": 10}
				}
			}`),
			Capabilities: []string{"notes"},
		}, s.listNotes),
	}, nil
}

func (s *NotesServer) saveNote(ctx context.Context, req *tool.Request) (any, error) {
	content := stringParam(req.Parameters, "content", "")
	title := stringParam(req.Parameters, "title", "")
	tags := stringSliceParam(req.Parameters, "tags", nil)

	if title == "" {
		title = deriveTitle(content)
	}

	now := time.Now().UTC()
	note := &store.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	s.Logger().Debug("note saved", "note_id", note.ID, "title", note.Title)
	return noteJSON(note), nil
}

func (s *NotesServer) searchNotes(ctx context.Context, req *tool.Request) (any, error) {
	query := stringParam(req.Parameters, "query", "")
	tag := stringParam(req.Parameters, "tag", "")
	limit := intParam(req.Parameters, "limit", 10)

	notes, err := s.store.SearchNotes(ctx, query, tag, limit)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"query":   query,
		"results": notesJSON(notes),
		"total":   len(notes),
	}, nil
}

func (s *NotesServer) listNotes(ctx context.Context, req *tool.Request) (any, error) {
	limit := intParam(req.Parameters, "limit", 10)

	notes, err := s.store.ListNotes(ctx, limit)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"notes": notesJSON(notes),
		"total": len(notes),
	}, nil
}

// deriveTitle takes the first line of the content, truncated on a word
// boundary.
func deriveTitle(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if len(line) <= noteTitleLimit {
		return line
	}
	cut := line[:noteTitleLimit]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

func noteJSON(n *store.Note) map[string]any {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":         n.ID,
		"title":      n.Title,
		"content":    n.Content,
		"tags":       tags,
		"created_at": n.CreatedAt.Format(time.RFC3339),
		"updated_at": n.UpdatedAt.Format(time.RFC3339),
	}
}

func notesJSON(notes []*store.Note) []map[string]any {
	out := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteJSON(n))
	}
	return out
}

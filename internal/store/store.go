// ABOUTME: Store interface and data types for hub persistence.
// ABOUTME: Defines conversation, note, API token, and tool execution records.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when inserting an entity that already exists.
var ErrDuplicate = errors.New("already exists")

// ConversationRecord identifies a stored conversation snapshot.
type ConversationRecord struct {
	SessionID string
	UpdatedAt time.Time
}

// Note is a stored note created through the notes tool server.
type Note struct {
	ID        string
	Title     string
	Content   string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// APIToken is a stored API token. Only the bcrypt hash is persisted; the
// raw token is shown once at creation and never stored.
type APIToken struct {
	ID         string
	Name       string
	Prefix     string
	Hash       string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// ToolExecution is one audit record of a routed tool call.
type ToolExecution struct {
	ID         string
	RequestID  string
	ToolName   string
	ServerName string
	Success    bool
	Error      string
	DurationMS int64
	CreatedAt  time.Time
}

// ToolUsage aggregates execution counts for one tool.
type ToolUsage struct {
	ToolName      string
	Executions    int64
	Failures      int64
	AvgDurationMS float64
}

// Store defines the persistence interface for the hub.
type Store interface {
	// Conversations
	SaveConversation(ctx context.Context, sessionID string, data []byte) error
	LoadConversation(ctx context.Context, sessionID string) ([]byte, error)
	DeleteConversation(ctx context.Context, sessionID string) error
	ListConversations(ctx context.Context, limit int) ([]ConversationRecord, error)

	// Notes
	CreateNote(ctx context.Context, note *Note) error
	GetNote(ctx context.Context, id string) (*Note, error)
	SearchNotes(ctx context.Context, query, tag string, limit int) ([]*Note, error)
	ListNotes(ctx context.Context, limit int) ([]*Note, error)
	DeleteNote(ctx context.Context, id string) error

	// API tokens
	CreateAPIToken(ctx context.Context, token *APIToken) error
	GetAPITokenByPrefix(ctx context.Context, prefix string) (*APIToken, error)
	ListAPITokens(ctx context.Context) ([]*APIToken, error)
	TouchAPIToken(ctx context.Context, id string) error
	DeleteAPIToken(ctx context.Context, id string) error

	// Tool executions (audit trail)
	InsertToolExecution(ctx context.Context, exec *ToolExecution) error
	ListToolExecutions(ctx context.Context, toolName string, limit int) ([]*ToolExecution, error)
	UsageStats(ctx context.Context, limit int) ([]ToolUsage, error)

	// Close releases any resources held by the store.
	Close() error
}

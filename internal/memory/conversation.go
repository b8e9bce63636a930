// ABOUTME: Bounded per-session conversation history with FIFO eviction.
// ABOUTME: Supports summaries and lossless snapshot persistence through a Store.

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message roles used throughout the system.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultMaxMessages caps a conversation when no explicit limit is given.
const DefaultMaxMessages = 1000

// Message is a single conversation entry.
type Message struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Store persists conversation snapshots keyed by session ID.
type Store interface {
	SaveConversation(ctx context.Context, sessionID string, data []byte) error
	LoadConversation(ctx context.Context, sessionID string) ([]byte, error)
	DeleteConversation(ctx context.Context, sessionID string) error
}

// Conversation is an ordered message history for one session. Once the
// message cap is reached, the oldest messages are evicted first. All
// methods are safe for concurrent use.
type Conversation struct {
	sessionID   string
	maxMessages int

	mu         sync.RWMutex
	messages   []Message
	summary    string
	createdAt  time.Time
	lastAccess time.Time
}

// snapshot is the JSON payload persisted per session.
type snapshot struct {
	SessionID  string    `json:"session_id"`
	Messages   []Message `json:"messages"`
	Summary    string    `json:"summary,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_accessed"`
}

// NewConversation creates an empty conversation for a session.
// maxMessages <= 0 selects DefaultMaxMessages.
func NewConversation(sessionID string, maxMessages int) *Conversation {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	now := time.Now().UTC()
	return &Conversation{
		sessionID:   sessionID,
		maxMessages: maxMessages,
		createdAt:   now,
		lastAccess:  now,
	}
}

// SessionID returns the session this conversation belongs to.
func (c *Conversation) SessionID() string { return c.sessionID }

// Add appends a message and evicts the oldest entries beyond the cap.
// The stored message, with its assigned ID and timestamp, is returned.
func (c *Conversation) Add(role, content string, metadata map[string]any) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
	if len(c.messages) > c.maxMessages {
		n := copy(c.messages, c.messages[len(c.messages)-c.maxMessages:])
		c.messages = c.messages[:n]
	}
	c.lastAccess = time.Now().UTC()
	return msg
}

// Messages returns a snapshot of the full history, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Message(nil), c.messages...)
}

// Recent returns the last n messages, oldest first. n <= 0 returns the
// full history.
func (c *Conversation) Recent(n int) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || n >= len(c.messages) {
		return append([]Message(nil), c.messages...)
	}
	return append([]Message(nil), c.messages[len(c.messages)-n:]...)
}

// Len returns the number of stored messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Summary returns the conversation summary, if one has been set.
func (c *Conversation) Summary() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summary
}

// SetSummary records a summary of the conversation so far.
func (c *Conversation) SetSummary(summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = summary
}

// Clear removes all messages and the summary.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.summary = ""
	c.lastAccess = time.Now().UTC()
}

// CreatedAt returns when the conversation was created.
func (c *Conversation) CreatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.createdAt
}

// LastAccess returns when a message was last added.
func (c *Conversation) LastAccess() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastAccess
}

// SaveTo writes the conversation snapshot to the store.
func (c *Conversation) SaveTo(ctx context.Context, st Store) error {
	c.mu.RLock()
	snap := snapshot{
		SessionID:  c.sessionID,
		Messages:   append([]Message(nil), c.messages...),
		Summary:    c.summary,
		CreatedAt:  c.createdAt,
		LastAccess: c.lastAccess,
	}
	c.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode conversation %q: %w", c.sessionID, err)
	}
	if err := st.SaveConversation(ctx, c.sessionID, data); err != nil {
		return fmt.Errorf("save conversation %q: %w", c.sessionID, err)
	}
	return nil
}

// LoadFrom replaces the conversation's contents with the stored snapshot.
func (c *Conversation) LoadFrom(ctx context.Context, st Store) error {
	data, err := st.LoadConversation(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("load conversation %q: %w", c.sessionID, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode conversation %q: %w", c.sessionID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = snap.Messages
	c.summary = snap.Summary
	if !snap.CreatedAt.IsZero() {
		c.createdAt = snap.CreatedAt
	}
	if !snap.LastAccess.IsZero() {
		c.lastAccess = snap.LastAccess
	}
	return nil
}

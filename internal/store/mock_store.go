// ABOUTME: In-memory mock implementation of the Store interface for tests.
// ABOUTME: Mirrors SQLite semantics including sentinel errors and ordering.

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu            sync.Mutex
	conversations map[string][]byte
	convUpdated   map[string]time.Time
	notes         map[string]*Note
	tokens        map[string]*APIToken
	executions    []*ToolExecution

	// ForcedErr, when set, is returned by every operation.
	ForcedErr error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		conversations: make(map[string][]byte),
		convUpdated:   make(map[string]time.Time),
		notes:         make(map[string]*Note),
		tokens:        make(map[string]*APIToken),
	}
}

func (m *MockStore) SaveConversation(ctx context.Context, sessionID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.conversations[sessionID] = append([]byte(nil), data...)
	m.convUpdated[sessionID] = time.Now().UTC()
	return nil
}

func (m *MockStore) LoadConversation(ctx context.Context, sessionID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	data, ok := m.conversations[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MockStore) DeleteConversation(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	if _, ok := m.conversations[sessionID]; !ok {
		return ErrNotFound
	}
	delete(m.conversations, sessionID)
	delete(m.convUpdated, sessionID)
	return nil
}

func (m *MockStore) ListConversations(ctx context.Context, limit int) ([]ConversationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	if limit <= 0 {
		limit = 100
	}

	records := make([]ConversationRecord, 0, len(m.conversations))
	for id := range m.conversations {
		records = append(records, ConversationRecord{SessionID: id, UpdatedAt: m.convUpdated[id]})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UpdatedAt.After(records[j].UpdatedAt) })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *MockStore) CreateNote(ctx context.Context, note *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	if _, ok := m.notes[note.ID]; ok {
		return fmt.Errorf("%w: note %q", ErrDuplicate, note.ID)
	}
	copied := *note
	m.notes[note.ID] = &copied
	return nil
}

func (m *MockStore) GetNote(ctx context.Context, id string) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	note, ok := m.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *note
	return &copied, nil
}

func (m *MockStore) SearchNotes(ctx context.Context, query, tag string, limit int) ([]*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	if limit <= 0 {
		limit = 50
	}

	var matches []*Note
	for _, note := range m.notes {
		if query != "" &&
			!strings.Contains(strings.ToLower(note.Title), strings.ToLower(query)) &&
			!strings.Contains(strings.ToLower(note.Content), strings.ToLower(query)) {
			continue
		}
		if tag != "" && !containsTag(note.Tags, tag) {
			continue
		}
		copied := *note
		matches = append(matches, &copied)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].UpdatedAt.After(matches[j].UpdatedAt) })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *MockStore) ListNotes(ctx context.Context, limit int) ([]*Note, error) {
	return m.SearchNotes(ctx, "", "", limit)
}

func (m *MockStore) DeleteNote(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	if _, ok := m.notes[id]; !ok {
		return ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *MockStore) CreateAPIToken(ctx context.Context, token *APIToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	for _, existing := range m.tokens {
		if existing.Prefix == token.Prefix {
			return fmt.Errorf("%w: token prefix %q", ErrDuplicate, token.Prefix)
		}
	}
	copied := *token
	m.tokens[token.ID] = &copied
	return nil
}

func (m *MockStore) GetAPITokenByPrefix(ctx context.Context, prefix string) (*APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	for _, token := range m.tokens {
		if token.Prefix == prefix {
			copied := *token
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) ListAPITokens(ctx context.Context) ([]*APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	tokens := make([]*APIToken, 0, len(m.tokens))
	for _, token := range m.tokens {
		copied := *token
		tokens = append(tokens, &copied)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].CreatedAt.After(tokens[j].CreatedAt) })
	return tokens, nil
}

func (m *MockStore) TouchAPIToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	token, ok := m.tokens[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	token.LastUsedAt = &now
	return nil
}

func (m *MockStore) DeleteAPIToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	if _, ok := m.tokens[id]; !ok {
		return ErrNotFound
	}
	delete(m.tokens, id)
	return nil
}

func (m *MockStore) InsertToolExecution(ctx context.Context, exec *ToolExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	copied := *exec
	m.executions = append(m.executions, &copied)
	return nil
}

func (m *MockStore) ListToolExecutions(ctx context.Context, toolName string, limit int) ([]*ToolExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	if limit <= 0 {
		limit = 50
	}

	var execs []*ToolExecution
	for i := len(m.executions) - 1; i >= 0 && len(execs) < limit; i-- {
		if toolName != "" && m.executions[i].ToolName != toolName {
			continue
		}
		copied := *m.executions[i]
		execs = append(execs, &copied)
	}
	return execs, nil
}

func (m *MockStore) UsageStats(ctx context.Context, limit int) ([]ToolUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	if limit <= 0 {
		limit = 50
	}

	byTool := make(map[string]*ToolUsage)
	totals := make(map[string]int64)
	for _, e := range m.executions {
		u, ok := byTool[e.ToolName]
		if !ok {
			u = &ToolUsage{ToolName: e.ToolName}
			byTool[e.ToolName] = u
		}
		u.Executions++
		if !e.Success {
			u.Failures++
		}
		totals[e.ToolName] += e.DurationMS
	}

	stats := make([]ToolUsage, 0, len(byTool))
	for name, u := range byTool {
		u.AvgDurationMS = float64(totals[name]) / float64(u.Executions)
		stats = append(stats, *u)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Executions > stats[j].Executions })
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

func (m *MockStore) Close() error { return nil }

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

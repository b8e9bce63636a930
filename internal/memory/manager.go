// ABOUTME: Session-keyed conversation manager with idle eviction and persistence.
// ABOUTME: A background sweeper drops sessions that have been idle past the max age.

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the background sweeper runs.
const DefaultSweepInterval = 5 * time.Minute

// Manager tracks conversations by session ID. When a Store is attached,
// new sessions are hydrated from their stored snapshot and Persist writes
// them back. Idle sessions past MaxAge are evicted from memory by the
// sweeper; their stored snapshots are kept.
type Manager struct {
	logger      *slog.Logger
	store       Store
	maxMessages int
	maxAge      time.Duration

	mu       sync.RWMutex
	sessions map[string]*Conversation
	done     chan struct{}
	closed   bool
}

// ManagerConfig contains configuration options for the Manager.
type ManagerConfig struct {
	Logger *slog.Logger

	// Store, when set, is used to hydrate and persist conversations.
	Store Store

	// MaxMessages caps each conversation; DefaultMaxMessages when zero.
	MaxMessages int

	// MaxAge evicts sessions idle longer than this. Zero disables the
	// background sweeper.
	MaxAge time.Duration

	// SweepInterval overrides DefaultSweepInterval.
	SweepInterval time.Duration
}

// NewManager creates a conversation manager and starts the idle sweeper
// when MaxAge is set.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger:      logger.With("component", "memory"),
		store:       cfg.Store,
		maxMessages: cfg.MaxMessages,
		maxAge:      cfg.MaxAge,
		sessions:    make(map[string]*Conversation),
		done:        make(chan struct{}),
	}

	if cfg.MaxAge > 0 {
		interval := cfg.SweepInterval
		if interval <= 0 {
			interval = DefaultSweepInterval
		}
		go m.sweep(interval)
	}
	return m
}

// Get returns the conversation for a session, if it is in memory.
func (m *Manager) Get(sessionID string) (*Conversation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[sessionID]
	return c, ok
}

// GetOrCreate returns the conversation for a session, creating it if
// needed. With a store attached, a new conversation is hydrated from its
// stored snapshot; a failed load starts the session fresh.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID string) *Conversation {
	m.mu.RLock()
	c, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return c
	}

	fresh := NewConversation(sessionID, m.maxMessages)
	if m.store != nil {
		if err := fresh.LoadFrom(ctx, m.store); err != nil {
			m.logger.Debug("no stored conversation", "session_id", sessionID, "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sessionID]; ok {
		return existing
	}
	m.sessions[sessionID] = fresh
	return fresh
}

// Remove evicts a session from memory. The stored snapshot, if any, is
// kept.
func (m *Manager) Remove(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}
	delete(m.sessions, sessionID)
	return true
}

// Sessions returns the in-memory session IDs, sorted.
func (m *Manager) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of sessions in memory.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Persist writes one session's snapshot to the attached store. Without a
// store it is a no-op.
func (m *Manager) Persist(ctx context.Context, sessionID string) error {
	if m.store == nil {
		return nil
	}

	c, ok := m.Get(sessionID)
	if !ok {
		return fmt.Errorf("session %q not found", sessionID)
	}
	return c.SaveTo(ctx, m.store)
}

// SaveAll persists every in-memory session, continuing past individual
// failures. Without a store it is a no-op.
func (m *Manager) SaveAll(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	m.mu.RLock()
	convs := make([]*Conversation, 0, len(m.sessions))
	for _, c := range m.sessions {
		convs = append(convs, c)
	}
	m.mu.RUnlock()

	var errs []error
	for _, c := range convs {
		if err := c.SaveTo(ctx, m.store); err != nil {
			m.logger.Warn("failed to persist conversation", "session_id", c.SessionID(), "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("persisted with %d failures", len(errs))
	}
	return nil
}

// CleanupOlderThan evicts sessions idle longer than maxAge and returns
// how many were removed.
func (m *Manager) CleanupOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, c := range m.sessions {
		if c.LastAccess().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("evicted idle sessions", "removed", removed, "remaining", len(m.sessions))
	}
	return removed
}

// sweep runs in a background goroutine, periodically evicting idle
// sessions.
func (m *Manager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOlderThan(m.maxAge)
		case <-m.done:
			return
		}
	}
}

// Close stops the background sweeper. It is safe to call multiple times.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		close(m.done)
		m.closed = true
	}
}

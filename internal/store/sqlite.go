// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite.
// ABOUTME: Owns schema creation and the conversation snapshot operations.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			session_id TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_updated
			ON conversations(updated_at DESC);

		CREATE TABLE IF NOT EXISTS notes (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			tags       TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at DESC);

		CREATE TABLE IF NOT EXISTS api_tokens (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			prefix       TEXT NOT NULL UNIQUE,
			token_hash   TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			last_used_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_api_tokens_prefix ON api_tokens(prefix);

		CREATE TABLE IF NOT EXISTS tool_executions (
			id          TEXT PRIMARY KEY,
			request_id  TEXT NOT NULL,
			tool_name   TEXT NOT NULL,
			server_name TEXT NOT NULL,
			success     INTEGER NOT NULL,
			error       TEXT,
			duration_ms INTEGER NOT NULL,
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tool_executions_tool
			ON tool_executions(tool_name);
		CREATE INDEX IF NOT EXISTS idx_tool_executions_created
			ON tool_executions(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// SaveConversation upserts a conversation snapshot for a session.
func (s *SQLiteStore) SaveConversation(ctx context.Context, sessionID string, data []byte) error {
	query := `
		INSERT INTO conversations (session_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		sessionID,
		string(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}

	s.logger.Debug("saved conversation", "session_id", sessionID, "bytes", len(data))
	return nil
}

// LoadConversation retrieves a conversation snapshot by session ID.
// Returns ErrNotFound if no snapshot exists.
func (s *SQLiteStore) LoadConversation(ctx context.Context, sessionID string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM conversations WHERE session_id = ?`, sessionID,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	return []byte(data), nil
}

// DeleteConversation removes a conversation snapshot.
// Returns ErrNotFound if no snapshot exists.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE session_id = ?`, sessionID,
	)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)

// ListConversations returns stored sessions, most recently updated first.
func (s *SQLiteStore) ListConversations(ctx context.Context, limit int) ([]ConversationRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, updated_at FROM conversations ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ConversationRecord
	for rows.Next() {
		var rec ConversationRecord
		var updatedAt string
		if err := rows.Scan(&rec.SessionID, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

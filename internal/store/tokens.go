// ABOUTME: API token persistence methods for the SQLite store.
// ABOUTME: Stores bcrypt hashes keyed by token prefix for constant-count lookup.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateAPIToken inserts a token record. A duplicate prefix returns
// ErrDuplicate.
func (s *SQLiteStore) CreateAPIToken(ctx context.Context, token *APIToken) error {
	query := `
		INSERT INTO api_tokens (id, name, prefix, token_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.Name,
		token.Prefix,
		token.Hash,
		token.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: token prefix %q", ErrDuplicate, token.Prefix)
		}
		return fmt.Errorf("inserting API token: %w", err)
	}

	s.logger.Debug("created API token", "id", token.ID, "name", token.Name)
	return nil
}

// GetAPITokenByPrefix retrieves a token record by its prefix.
// Returns ErrNotFound if no token matches.
func (s *SQLiteStore) GetAPITokenByPrefix(ctx context.Context, prefix string) (*APIToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, prefix, token_hash, created_at, last_used_at FROM api_tokens WHERE prefix = ?`,
		prefix,
	)

	token, err := scanAPIToken(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying API token: %w", err)
	}
	return token, nil
}

// ListAPITokens returns all token records, newest first.
func (s *SQLiteStore) ListAPITokens(ctx context.Context) ([]*APIToken, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, prefix, token_hash, created_at, last_used_at FROM api_tokens ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying API tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tokens []*APIToken
	for rows.Next() {
		token, err := scanAPIToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning API token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// TouchAPIToken records that a token was just used.
func (s *SQLiteStore) TouchAPIToken(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE api_tokens SET last_used_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("touching API token: %w", err)
	}
	return nil
}

// DeleteAPIToken removes a token record. Returns ErrNotFound if it
// doesn't exist.
func (s *SQLiteStore) DeleteAPIToken(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_tokens WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting API token: %w", err)
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

func scanAPIToken(row scanner) (*APIToken, error) {
	var token APIToken
	var createdAt string
	var lastUsedAt sql.NullString

	if err := row.Scan(&token.ID, &token.Name, &token.Prefix, &token.Hash, &createdAt, &lastUsedAt); err != nil {
		return nil, err
	}

	token.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if lastUsedAt.Valid {
		if ts, err := time.Parse(time.RFC3339, lastUsedAt.String); err == nil {
			token.LastUsedAt = &ts
		}
	}
	return &token, nil
}

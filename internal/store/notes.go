// ABOUTME: Note persistence methods for the SQLite store.
// ABOUTME: Backs the notes tool server with create, search, list, and delete.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CreateNote inserts a note. A note with an existing ID returns ErrDuplicate.
func (s *SQLiteStore) CreateNote(ctx context.Context, note *Note) error {
	tags, err := json.Marshal(note.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	query := `
		INSERT INTO notes (id, title, content, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		note.ID,
		note.Title,
		note.Content,
		string(tags),
		note.CreatedAt.UTC().Format(time.RFC3339),
		note.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: note %q", ErrDuplicate, note.ID)
		}
		return fmt.Errorf("inserting note: %w", err)
	}

	s.logger.Debug("created note", "id", note.ID, "title", note.Title)
	return nil
}

// GetNote retrieves a note by ID. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetNote(ctx context.Context, id string) (*Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, tags, created_at, updated_at FROM notes WHERE id = ?`, id,
	)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying note: %w", err)
	}
	return note, nil
}

// SearchNotes returns notes whose title or content matches the query,
// optionally filtered by tag, most recently updated first.
func (s *SQLiteStore) SearchNotes(ctx context.Context, query, tag string, limit int) ([]*Note, error) {
	if limit <= 0 {
		limit = 50
	}

	var args []any
	sqlQuery := `SELECT id, title, content, tags, created_at, updated_at FROM notes WHERE 1=1`

	if query != "" {
		sqlQuery += ` AND (title LIKE ? OR content LIKE ?)`
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern)
	}
	if tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		sqlQuery += ` AND tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	sqlQuery += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	return s.queryNotes(ctx, sqlQuery, args...)
}

// ListNotes returns notes, most recently updated first.
func (s *SQLiteStore) ListNotes(ctx context.Context, limit int) ([]*Note, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryNotes(ctx,
		`SELECT id, title, content, tags, created_at, updated_at FROM notes ORDER BY updated_at DESC LIMIT ?`,
		limit,
	)
}

// DeleteNote removes a note by ID. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) DeleteNote(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
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

func (s *SQLiteStore) queryNotes(ctx context.Context, query string, args ...any) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []*Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*Note, error) {
	var note Note
	var tagsJSON sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&note.ID, &note.Title, &note.Content, &tagsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		_ = json.Unmarshal([]byte(tagsJSON.String), &note.Tags) // Best effort: invalid JSON leaves tags empty
	}
	note.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	note.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &note, nil
}

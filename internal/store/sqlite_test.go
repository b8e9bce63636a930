// ABOUTME: Tests for SQLite store initialization and conversation snapshots.
// ABOUTME: Covers schema creation, upsert behavior, and sentinel errors.

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return s
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStoreCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestConversationSaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	payload := []byte(`{"session_id":"s1","messages":[]}`)
	if err := s.SaveConversation(ctx, "s1", payload); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.LoadConversation(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(loaded) != string(payload) {
		t.Errorf("expected %s, got %s", payload, loaded)
	}
}

func TestConversationUpsert(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if err := s.SaveConversation(ctx, "s1", []byte(`first`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveConversation(ctx, "s1", []byte(`second`)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := s.LoadConversation(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(loaded) != "second" {
		t.Errorf("expected upserted payload, got %s", loaded)
	}
}

func TestConversationNotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.LoadConversation(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteConversation(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestConversationDelete(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	s.SaveConversation(ctx, "s1", []byte(`data`))
	if err := s.DeleteConversation(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.LoadConversation(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListConversations(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	s.SaveConversation(ctx, "s1", []byte(`one`))
	s.SaveConversation(ctx, "s2", []byte(`two`))

	records, err := s.ListConversations(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.UpdatedAt.IsZero() {
			t.Errorf("expected updated_at on %q", rec.SessionID)
		}
	}

	limited, err := s.ListConversations(ctx, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d records", len(limited))
	}
}

func TestMockStoreMatchesSQLiteConversations(t *testing.T) {
	ctx := context.Background()

	for name, s := range map[string]Store{
		"sqlite": newTestStore(t),
		"mock":   NewMockStore(),
	} {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			if err := s.SaveConversation(ctx, "s1", []byte(`x`)); err != nil {
				t.Fatalf("save: %v", err)
			}
			if _, err := s.LoadConversation(ctx, "absent"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if err := s.DeleteConversation(ctx, "s1"); err != nil {
				t.Errorf("delete: %v", err)
			}
		})
	}
}

func TestTimestampsRoundTripUTC(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	note := &Note{
		ID:        "n1",
		Title:     "timestamps",
		Content:   "check",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateNote(ctx, note); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetNote(ctx, "n1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("expected created_at %v, got %v", now, got.CreatedAt)
	}
}

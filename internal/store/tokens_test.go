// ABOUTME: Tests for API token persistence covering prefix lookup and touch.
// ABOUTME: Validates duplicate prefixes and last-used tracking.

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func makeToken(id, name, prefix string) *APIToken {
	return &APIToken{
		ID:        id,
		Name:      name,
		Prefix:    prefix,
		Hash:      "$2a$10$fakehashfortesting",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateAndGetAPIToken(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if err := s.CreateAPIToken(ctx, makeToken("t1", "ci", "qh_abc123")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetAPITokenByPrefix(ctx, "qh_abc123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "t1" || got.Name != "ci" {
		t.Errorf("unexpected token: %+v", got)
	}
	if got.LastUsedAt != nil {
		t.Error("expected fresh token to have no last_used_at")
	}
}

func TestCreateAPITokenDuplicatePrefix(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if err := s.CreateAPIToken(ctx, makeToken("t1", "ci", "qh_abc123")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateAPIToken(ctx, makeToken("t2", "other", "qh_abc123")); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetAPITokenNotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.GetAPITokenByPrefix(context.Background(), "qh_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTouchAPIToken(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	s.CreateAPIToken(ctx, makeToken("t1", "ci", "qh_abc123"))
	if err := s.TouchAPIToken(ctx, "t1"); err != nil {
		t.Fatalf("touch: %v", err)
	}

	got, err := s.GetAPITokenByPrefix(ctx, "qh_abc123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastUsedAt == nil {
		t.Error("expected last_used_at to be set after touch")
	}
}

func TestListAndDeleteAPITokens(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	s.CreateAPIToken(ctx, makeToken("t1", "ci", "qh_aaa"))
	s.CreateAPIToken(ctx, makeToken("t2", "deploy", "qh_bbb"))

	tokens, err := s.ListAPITokens(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}

	if err := s.DeleteAPIToken(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteAPIToken(ctx, "t1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	tokens, _ = s.ListAPITokens(ctx)
	if len(tokens) != 1 || tokens[0].ID != "t2" {
		t.Errorf("unexpected tokens after delete: %+v", tokens)
	}
}

// ABOUTME: Tests for API token minting/verification and the HTTP middleware.
// ABOUTME: Exercises both credential paths and the disabled passthrough.

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2389/quorum-hub/internal/store"
)

func TestMintAndVerifyAPIToken(t *testing.T) {
	ctx := context.Background()
	s := store.NewMockStore()

	raw, token, err := MintAPIToken(ctx, s, "ci-deploy")
	if err != nil {
		t.Fatalf("MintAPIToken() error = %v", err)
	}
	if !strings.HasPrefix(raw, APITokenScheme) {
		t.Errorf("raw token %q missing %q prefix", raw, APITokenScheme)
	}
	if token.Prefix != raw[:apiTokenPrefixLen] {
		t.Errorf("stored prefix = %q, want %q", token.Prefix, raw[:apiTokenPrefixLen])
	}
	if token.Hash == raw || strings.Contains(token.Hash, raw) {
		t.Error("raw token leaked into stored hash")
	}

	got, err := VerifyAPIToken(ctx, s, raw)
	if err != nil {
		t.Fatalf("VerifyAPIToken() error = %v", err)
	}
	if got.ID != token.ID {
		t.Errorf("VerifyAPIToken() id = %q, want %q", got.ID, token.ID)
	}
}

func TestVerifyAPIToken_Rejections(t *testing.T) {
	ctx := context.Background()
	s := store.NewMockStore()

	raw, _, err := MintAPIToken(ctx, s, "ci-deploy")
	if err != nil {
		t.Fatalf("MintAPIToken() error = %v", err)
	}

	tests := []struct {
		name string
		raw  string
	}{
		{name: "too short", raw: "qh_short"},
		{name: "wrong scheme", raw: "xx_" + strings.Repeat("a", 32)},
		{name: "unknown prefix", raw: APITokenScheme + strings.Repeat("z", 32)},
		{name: "tampered body", raw: raw[:apiTokenPrefixLen] + strings.Repeat("a", len(raw)-apiTokenPrefixLen)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyAPIToken(ctx, s, tt.raw); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("VerifyAPIToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestMiddleware_DisabledPassesThrough(t *testing.T) {
	a := NewAuthenticator(Config{})
	if a.Enabled() {
		t.Fatal("authenticator without secret should be disabled")
	}

	called := false
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if FromContext(r.Context()) != nil {
			t.Error("disabled middleware should not attach an identity")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tools", nil))

	if !called {
		t.Error("next handler was not called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMiddleware_RejectsBadHeaders(t *testing.T) {
	a := NewAuthenticator(Config{JWTSecret: "secret"})
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	}))

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "missing", header: "", want: "missing authorization header"},
		{name: "wrong scheme", header: "Basic abc", want: "invalid authorization header format"},
		{name: "empty token", header: "Bearer ", want: "empty token"},
		{name: "garbage token", header: "Bearer garbage", want: "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %q, want mention of %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestMiddleware_AcceptsJWT(t *testing.T) {
	a := NewAuthenticator(Config{JWTSecret: "secret"})

	token, err := a.MintJWT("alice", time.Hour)
	if err != nil {
		t.Fatalf("MintJWT() error = %v", err)
	}

	var identity *Identity
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if identity == nil {
		t.Fatal("no identity attached to request context")
	}
	if identity.Subject != "alice" || identity.Method != MethodJWT {
		t.Errorf("identity = %+v, want subject alice via jwt", identity)
	}
}

func TestMiddleware_AcceptsAPITokenAndTouches(t *testing.T) {
	s := store.NewMockStore()
	a := NewAuthenticator(Config{JWTSecret: "secret", Store: s})

	raw, minted, err := MintAPIToken(context.Background(), s, "ci-deploy")
	if err != nil {
		t.Fatalf("MintAPIToken() error = %v", err)
	}

	var identity *Identity
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if identity == nil {
		t.Fatal("no identity attached to request context")
	}
	if identity.Subject != "ci-deploy" || identity.Method != MethodAPIToken || identity.TokenID != minted.ID {
		t.Errorf("identity = %+v, want ci-deploy via api_token", identity)
	}

	tokens, err := s.ListAPITokens(context.Background())
	if err != nil {
		t.Fatalf("ListAPITokens() error = %v", err)
	}
	if len(tokens) != 1 || tokens[0].LastUsedAt == nil {
		t.Error("token use was not recorded")
	}
}

func TestMiddleware_APITokenWithoutStore(t *testing.T) {
	a := NewAuthenticator(Config{JWTSecret: "secret"})
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	req.Header.Set("Authorization", "Bearer "+APITokenScheme+strings.Repeat("a", 32))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

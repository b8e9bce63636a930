// ABOUTME: HTTP middleware resolving bearer credentials into request identities.
// ABOUTME: Accepts HS256 JWTs or stored qh_ API tokens; rejects with 401 JSON.

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/2389/quorum-hub/internal/store"
)

// Authenticator guards HTTP handlers. Without a JWT secret it is disabled
// and passes every request through untouched.
type Authenticator struct {
	verifier *JWTVerifier
	store    store.Store
	logger   *slog.Logger
}

// Config configures the authenticator.
type Config struct {
	// JWTSecret enables authentication when non-empty.
	JWTSecret string

	// Store resolves qh_ API tokens. Optional; JWT-only when nil.
	Store store.Store

	Logger *slog.Logger
}

// NewAuthenticator builds the authenticator from config.
func NewAuthenticator(cfg Config) *Authenticator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{store: cfg.Store, logger: logger.With("component", "auth")}
	if cfg.JWTSecret != "" {
		a.verifier = NewJWTVerifier([]byte(cfg.JWTSecret))
	}
	return a
}

// Enabled reports whether requests are actually checked. Safe on a nil
// receiver so callers can wire an optional authenticator directly.
func (a *Authenticator) Enabled() bool {
	return a != nil && a.verifier != nil
}

// MintJWT issues a signed token for the subject. Fails when auth is
// disabled.
func (a *Authenticator) MintJWT(subject string, expiresIn time.Duration) (string, error) {
	if !a.Enabled() {
		return "", ErrInvalidToken
	}
	return a.verifier.Generate(subject, expiresIn)
}

// Middleware wraps next with bearer authentication. Disabled authenticators
// return next unchanged.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
		if errMsg != "" {
			unauthorized(w, errMsg)
			return
		}

		identity, err := a.Resolve(r.Context(), token)
		if err != nil {
			a.logger.Debug("authentication rejected", "error", err)
			unauthorized(w, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// Resolve checks a raw bearer credential, either a qh_ API token or a JWT,
// and returns the identity it proves. Handlers that take credentials
// outside the Authorization header use this directly.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*Identity, error) {
	if strings.HasPrefix(token, APITokenScheme) {
		if a.store == nil {
			return nil, ErrInvalidToken
		}
		stored, err := VerifyAPIToken(ctx, a.store, token)
		if err != nil {
			return nil, err
		}
		// Usage tracking must not fail the request.
		if err := a.store.TouchAPIToken(ctx, stored.ID); err != nil {
			a.logger.Warn("touch api token", "token", stored.Name, "error", err)
		}
		return &Identity{Subject: stored.Name, Method: MethodAPIToken, TokenID: stored.ID}, nil
	}

	if a.verifier == nil {
		return nil, ErrInvalidToken
	}
	subject, err := a.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	return &Identity{Subject: subject, Method: MethodJWT}, nil
}

// extractBearerToken pulls the token out of an Authorization header.
// Returns the token and an error message, empty on success.
func extractBearerToken(header string) (token, errMsg string) {
	if header == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token = strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

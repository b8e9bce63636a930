// ABOUTME: Long-lived API tokens: qh_-prefixed secrets checked against bcrypt hashes.
// ABOUTME: Only the hash and a short lookup prefix persist; the raw token shows once.

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/quorum-hub/internal/store"
)

const (
	// APITokenScheme prefixes every raw API token.
	APITokenScheme = "qh_"

	// apiTokenPrefixLen is how much of the raw token is stored in clear
	// for lookup.
	apiTokenPrefixLen = 12

	apiTokenRandomBytes = 24
)

// MintAPIToken creates a token under the given name, persists its bcrypt
// hash, and returns the raw token. The raw value is not recoverable later.
func MintAPIToken(ctx context.Context, s store.Store, name string) (string, *store.APIToken, error) {
	buf := make([]byte, apiTokenRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	raw := APITokenScheme + base64.RawURLEncoding.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash token: %w", err)
	}

	token := &store.APIToken{
		ID:        uuid.NewString(),
		Name:      name,
		Prefix:    raw[:apiTokenPrefixLen],
		Hash:      string(hash),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateAPIToken(ctx, token); err != nil {
		return "", nil, fmt.Errorf("store token: %w", err)
	}
	return raw, token, nil
}

// VerifyAPIToken resolves a raw qh_ token against the store.
func VerifyAPIToken(ctx context.Context, s store.Store, raw string) (*store.APIToken, error) {
	if len(raw) < apiTokenPrefixLen || !strings.HasPrefix(raw, APITokenScheme) {
		return nil, ErrInvalidToken
	}
	token, err := s.GetAPITokenByPrefix(ctx, raw[:apiTokenPrefixLen])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("look up token: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(token.Hash), []byte(raw)) != nil {
		return nil, ErrInvalidToken
	}
	return token, nil
}

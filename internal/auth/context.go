// ABOUTME: Authenticated identity propagated through request contexts.
// ABOUTME: WithIdentity/FromContext mirror the usual context-value pattern.

package auth

import "context"

// Credential methods.
const (
	MethodJWT      = "jwt"
	MethodAPIToken = "api_token"
)

// Identity describes who a request is acting as and how they proved it.
type Identity struct {
	// Subject is the JWT "sub" claim or the API token's name.
	Subject string

	// Method is MethodJWT or MethodAPIToken.
	Method string

	// TokenID is the stored token id when Method is MethodAPIToken.
	TokenID string
}

type identityKey struct{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the request identity, or nil when the request was
// not authenticated (auth disabled, or an unauthenticated endpoint).
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

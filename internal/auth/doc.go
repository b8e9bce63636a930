// Package auth protects the hub's HTTP API.
//
// Two credentials are accepted on the Authorization header: HS256-signed
// JWTs carrying the caller in the "sub" claim, and long-lived API tokens
// with the "qh_" prefix checked against bcrypt hashes in the store. The
// middleware resolves either into an Identity available through
// FromContext.
//
// Auth is off until a JWT secret is configured; the middleware then
// passes every request through untouched.
package auth

// Package http provides the authentication HTTP surface: session
// middleware, permission gates and the login/logout/register handlers.
package http

import (
	"context"

	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// userKey is a context key type for storing the authenticated user.
type userKey struct{}

// tokenKey is a context key type for storing the presented session token.
type tokenKey struct{}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *identityDomain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser retrieves the authenticated user from the context.
// Returns (nil, false) for anonymous requests.
func GetUser(ctx context.Context) (*identityDomain.User, bool) {
	user, ok := ctx.Value(userKey{}).(*identityDomain.User)
	return user, ok && user != nil
}

// WithSessionToken stores the plain session token presented by the request,
// so logout can terminate the exact session it arrived on.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// GetSessionToken retrieves the presented session token from the context.
func GetSessionToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

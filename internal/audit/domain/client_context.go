package domain

import "context"

// ClientContext carries the request-scoped attribution attached to every
// audit event recorded during a request.
type ClientContext struct {
	RequestID string
	IP        string
	UserAgent string
}

type clientContextKey struct{}

// WithClientContext returns a context carrying the client attribution.
func WithClientContext(ctx context.Context, cc ClientContext) context.Context {
	return context.WithValue(ctx, clientContextKey{}, cc)
}

// ClientContextFrom extracts the client attribution from the context.
// Returns the zero value when none is attached, so events recorded outside
// a request (CLI commands, seed runs) are still valid.
func ClientContextFrom(ctx context.Context) ClientContext {
	cc, _ := ctx.Value(clientContextKey{}).(ClientContext)
	return cc
}

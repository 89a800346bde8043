package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the shopper's session in the request context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session placed by the session
// middleware. It returns nil outside a storefront request.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

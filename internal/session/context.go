package session

import "context"

type contextKey int

const (
	sessionKey contextKey = iota
	tokenKey
)

// WithContext attaches the resolved session (and the raw token it came
// from) to the request context. Handlers thread it from here; nothing
// reads session state from a global.
func WithContext(ctx context.Context, sess *Session, token string) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sess)
	return context.WithValue(ctx, tokenKey, token)
}

// FromContext returns the session attached to ctx, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}

// TokenFromContext returns the raw bearer token attached to ctx.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

package auth

import (
	"context"

	"github.com/guestlink/guestlink/internal/model"
)

type contextKey string

const (
	authContextKey    contextKey = "auth_context"
	sessionContextKey contextKey = "session_context"
)

// ContextWithAuth adds the API key AuthContext to ctx.
func ContextWithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext returns the API key AuthContext, or nil.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	auth, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// ContextWithSession adds the customer session to ctx.
func ContextWithSession(ctx context.Context, session *model.SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext returns the customer session, or nil.
func SessionFromContext(ctx context.Context) *model.SessionContext {
	session, ok := ctx.Value(sessionContextKey).(*model.SessionContext)
	if !ok {
		return nil
	}
	return session
}

// UserIDFromContext returns the logged-in customer's ID.
// Returns empty string when no customer session is present.
func UserIDFromContext(ctx context.Context) string {
	session := SessionFromContext(ctx)
	if session == nil {
		return ""
	}
	return session.UserID
}

// KeyIDFromContext returns the API key ID, or empty string.
func KeyIDFromContext(ctx context.Context) string {
	auth := AuthFromContext(ctx)
	if auth == nil {
		return ""
	}
	return auth.KeyID
}

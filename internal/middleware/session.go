package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/guestlink/guestlink/internal/auth"
	"github.com/guestlink/guestlink/internal/cache"
	"github.com/guestlink/guestlink/internal/model"
)

// Session transports.
const (
	SessionCookie = "guestlink_session"
	SessionHeader = "X-Session-Token"
)

// SessionResolver maps a session token to its customer.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (string, error)
}

// Session attaches the customer session, when one is presented and valid,
// to the request context. It never rejects a request; handlers decide what
// an anonymous visitor gets.
func Session(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractSessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.GetSession(r.Context(), token)
			if err != nil {
				if !errors.Is(err, cache.ErrSessionNotFound) {
					logger.ErrorContext(r.Context(), "session lookup failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.ContextWithSession(r.Context(), &model.SessionContext{UserID: userID, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without a customer session.
// Must be applied after Session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserIDFromContext(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to view your account")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractSessionToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(SessionHeader)); t != "" {
		return t
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/guestlink/guestlink/internal/auth"
	"github.com/guestlink/guestlink/internal/model"
)

// defaultMinAuthDuration is the floor on time spent authenticating, so
// failures and successes take about as long.
const defaultMinAuthDuration = 200 * time.Millisecond

// KeyStore looks up stored API keys.
type KeyStore interface {
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
}

// AuthCache caches resolved API key contexts.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, authCtx *model.AuthContext) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Keys   KeyStore
	Cache  AuthCache
	// MinDuration overrides the response time floor. Zero uses the default.
	MinDuration time.Duration
}

// Auth returns a middleware that authenticates operator API requests.
// It extracts the API key from the Authorization header,
// verifies it, and injects the auth context into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	minDuration := cfg.MinDuration
	if minDuration == 0 {
		minDuration = defaultMinAuthDuration
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			fail := func(reason string) {
				cfg.Logger.WarnContext(ctx, "authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(ctx)),
				)
				padDuration(start, minDuration)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
			}

			key := extractAPIKey(r)
			if key == "" {
				fail("missing_key")
				return
			}

			parsed, err := auth.ParseAPIKey(key)
			if err != nil {
				fail("invalid_format")
				return
			}

			cacheKey := auth.QuickHash(key)
			cacheHit := false
			authCtx, _ := cfg.Cache.GetAuthContext(ctx, cacheKey)
			if authCtx != nil {
				cacheHit = true
			} else {
				matched, err := findKey(ctx, cfg.Keys, parsed.Prefix, key)
				if err != nil {
					cfg.Logger.ErrorContext(ctx, "database error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(ctx)),
					)
					fail("lookup_error")
					return
				}
				if matched == nil {
					fail("invalid_key")
					return
				}

				authCtx = &model.AuthContext{
					KeyID:     matched.ID,
					KeyPrefix: matched.KeyPrefix,
					UserID:    matched.UserID,
					Scopes:    matched.Scopes,
				}
				_ = cfg.Cache.SetAuthContext(ctx, cacheKey, authCtx)

				// Detached from the request so it survives the response.
				go func(id string) {
					bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = cfg.Keys.UpdateAPIKeyLastUsed(bg, id)
				}(matched.ID)
			}

			cfg.Logger.InfoContext(ctx, "authentication successful",
				slog.String("key_id", authCtx.KeyID),
				slog.String("key_prefix", authCtx.KeyPrefix),
				slog.Bool("cache_hit", cacheHit),
				slog.String("request_id", GetRequestID(ctx)),
			)

			padDuration(start, minDuration)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(ctx, authCtx)))
		})
	}
}

// findKey verifies the presented key against every candidate with its
// prefix, which handles prefix collisions. Revoked keys never match.
func findKey(ctx context.Context, keys KeyStore, prefix, presented string) (*model.APIKey, error) {
	candidates, err := keys.GetAPIKeysByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	for _, k := range candidates {
		if k.IsRevoked() {
			continue
		}
		ok, err := auth.VerifySecret(presented, k.KeyHash)
		if err == nil && ok {
			return k, nil
		}
	}
	return nil, nil
}

func padDuration(start time.Time, floor time.Duration) {
	if elapsed := time.Since(start); elapsed < floor {
		time.Sleep(floor - elapsed)
	}
}

// extractAPIKey extracts the API key from the request.
// Supports both "Authorization: Bearer <key>" and "X-API-Key: <key>" headers.
func extractAPIKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// AdminInitFirer runs the admin-request lifecycle hooks.
type AdminInitFirer interface {
	FireAdminInit(ctx context.Context) error
}

// AdminInit fires the admin init hooks before every admin request.
// Hook failures are logged and the request proceeds.
func AdminInit(hooks AdminInitFirer, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := hooks.FireAdminInit(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "admin init hooks failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vidupload/backend/internal/auth"
	"github.com/vidupload/backend/internal/logging"
	"github.com/vidupload/backend/internal/models"
)

// CallerResolver resolves the authenticated user behind a request.
type CallerResolver interface {
	ResolveCaller(r *http.Request) (models.User, error)
}

// RequireCaller rejects requests without a valid bearer token and stores the resolved caller
// on the request context for the wrapped handler.
func RequireCaller(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := resolver.ResolveCaller(r)
			if err != nil {
				logging.FromContext(r.Context()).Warn("unauthenticated request", slog.Any("error", err))
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "could not validate credentials"})
				return
			}

			ctx := auth.WithCaller(r.Context(), caller)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(slog.String("user_id", caller.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

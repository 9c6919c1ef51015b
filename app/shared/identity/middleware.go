package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Authenticate resolves the bearer token on each request and stores the identity
// in the request context. Requests without a valid token get 401.
func Authenticate(p Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			id, err := p.ValidateToken(token)
			if err != nil {
				msg := "Unauthorized"
				if errors.Is(err, ErrExpiredToken) {
					msg = "Token expired"
				}
				logger.DebugContext(r.Context(), "Rejected bearer token", slog.String("error", err.Error()))
				http.Error(w, msg, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects callers whose identity does not carry role with 403.
// It must run after Authenticate.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if id.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

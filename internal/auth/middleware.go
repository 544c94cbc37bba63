package auth

import (
	"context"
	"net/http"
	"strings"

	"orgconsole-backend/internal/httpx"
)

type contextKey string

const userIDKey contextKey = "orgconsole_user_id"

// Middleware resolves the caller identity once per request from the
// Bearer token. Business logic downstream only ever sees the resolved
// account id, never the raw session.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := ParseToken(token)
		if err != nil || claims.Subject == "" {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(userIDKey)
	userID, ok := value.(string)
	return userID, ok
}

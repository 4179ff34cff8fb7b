package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const TokenKey contextKey = "bearer_token"

// BearerToken extracts an optional "Authorization: Bearer <token>" into the
// request context. Requests without one continue unauthenticated.
func BearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := parseBearer(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), TokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireBearer rejects requests that carry no bearer token.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetTokenFromContext(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"status":  "error",
				"message": "Sign in to view your analysis history.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetTokenFromContext returns the bearer token, or "".
func GetTokenFromContext(ctx context.Context) string {
	if tok, ok := ctx.Value(TokenKey).(string); ok {
		return tok
	}
	return ""
}

func parseBearer(h string) string {
	h = strings.TrimSpace(h)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
